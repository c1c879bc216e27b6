package gecco

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DistanceMetric names a distance between domain composition vectors.
type DistanceMetric string

const (
	// MetricJensenShannon compares compositions as probability
	// distributions over the domain vocabulary.
	MetricJensenShannon DistanceMetric = "jensenshannon"

	// MetricTanimoto compares compositions as binary presence vectors.
	MetricTanimoto DistanceMetric = "tanimoto"
)

// ParseDistanceMetric validates a metric name.
func ParseDistanceMetric(s string) (DistanceMetric, error) {
	switch DistanceMetric(s) {
	case MetricJensenShannon, MetricTanimoto:
		return DistanceMetric(s), nil
	}
	return "", configErrorf("unknown distance metric %q", s)
}

// TypePrediction is the classification of one query cluster. Types holds
// more than one entry when the neighbor vote tied between product types;
// Probability is the fraction of neighbors supporting them.
type TypePrediction struct {
	Types       []string
	Probability float64
}

// Type returns the predicted types as a single printable token.
func (p TypePrediction) Type() string {
	if len(p.Types) == 0 {
		return "Unknown"
	}
	out := p.Types[0]
	for _, t := range p.Types[1:] {
		out += "," + t
	}
	return out
}

// TypeClassifier assigns product types to clusters by nearest-neighbor
// vote over a reference composition matrix.
type TypeClassifier struct {
	// Metric is the distance between composition vectors
	Metric DistanceMetric

	// Neighbors is the vote size k, clipped to the reference count
	Neighbors int
}

// NewTypeClassifier returns a kNN classifier over the given metric.
func NewTypeClassifier(metric DistanceMetric, neighbors int) *TypeClassifier {
	return &TypeClassifier{Metric: metric, Neighbors: neighbors}
}

// FitPredict classifies each query composition against the reference
// matrix. Every query gets a prediction: when no type reaches a majority,
// the best supported candidates are still surfaced with their fractional
// support rather than dropped.
func (c *TypeClassifier) FitPredict(train, query [][]float64, labels []string) ([]TypePrediction, error) {
	if len(train) == 0 {
		return nil, configErrorf("reference composition matrix is empty")
	}
	if len(train) != len(labels) {
		return nil, dataErrorf(
			"%d reference compositions but %d type labels", len(train), len(labels))
	}
	if c.Neighbors < 1 {
		return nil, configErrorf("neighbor count must be positive, got %d", c.Neighbors)
	}

	k := c.Neighbors
	if k > len(train) {
		k = len(train)
	}

	predictions := make([]TypePrediction, len(query))
	for qi, q := range query {
		distances := make([]float64, len(train))
		for ti, t := range train {
			d, err := c.distance(q, t)
			if err != nil {
				return nil, err
			}
			distances[ti] = d
		}

		order := make([]int, len(train))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return distances[order[a]] < distances[order[b]]
		})

		votes := map[string]int{}
		for _, i := range order[:k] {
			votes[labels[i]]++
		}

		best := 0
		for _, n := range votes {
			if n > best {
				best = n
			}
		}

		var types []string
		for label, n := range votes {
			if n == best {
				types = append(types, label)
			}
		}
		sort.Strings(types)

		predictions[qi] = TypePrediction{
			Types:       types,
			Probability: float64(best) / float64(k),
		}
	}

	return predictions, nil
}

func (c *TypeClassifier) distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, dataErrorf(
			"composition length mismatch: %d vs %d", len(a), len(b))
	}

	switch c.Metric {
	case MetricJensenShannon:
		return stat.JensenShannon(normalized(a), normalized(b)), nil
	case MetricTanimoto:
		return tanimotoDistance(a, b), nil
	}
	return 0, configErrorf("unknown distance metric %q", c.Metric)
}

// tanimotoDistance is 1 - |A∩B| / |A∪B| over domain presence.
func tanimotoDistance(a, b []float64) float64 {
	both, either := 0, 0
	for i := range a {
		pa, pb := a[i] > 0, b[i] > 0
		if pa && pb {
			both++
		}
		if pa || pb {
			either++
		}
	}
	if either == 0 {
		return 0
	}
	return 1 - float64(both)/float64(either)
}

package gecco

import (
	"context"
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
)

// FoldResult is the prediction output of one cross-validation round: the
// held-out samples with their cluster probabilities attached.
type FoldResult struct {
	// ID of the round, eg fold3 or the held-out type for LOTO
	ID string

	// Samples are copies of the held-out samples with Probability set
	Samples [][]FeatureRow
}

// CrossValidator reruns fit+predict over fold splits of a labeled batch.
// A fresh labeler is built per fold so no parameters leak between rounds.
type CrossValidator struct {
	// NewLabeler builds an untrained labeler for one round
	NewLabeler func(round string) (*SequenceLabeler, error)
}

// KFold runs k-fold cross-validation with predefined contiguous folds
// over the samples.
func (cv *CrossValidator) KFold(ctx context.Context, samples [][]FeatureRow, k int) ([]FoldResult, error) {
	if k < 2 {
		return nil, configErrorf("cross-validation needs at least 2 folds, got %d", k)
	}
	if k > len(samples) {
		return nil, configErrorf("%d folds for %d samples", k, len(samples))
	}

	folds := foldAssignments(len(samples), k)
	results := make([]FoldResult, 0, k)
	for fold := 0; fold < k; fold++ {
		var train, test [][]FeatureRow
		for i, sample := range samples {
			if folds[i] == fold {
				test = append(test, sample)
			} else {
				train = append(train, sample)
			}
		}

		result, err := cv.singleFold(ctx, fmt.Sprintf("fold%d", fold), train, test)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// LOTO runs leave-one-type-out cross-validation: for every distinct
// stratification type, all samples carrying that type are held out
// together. A sample may carry several comma-separated types.
func (cv *CrossValidator) LOTO(ctx context.Context, samples [][]FeatureRow) ([]FoldResult, error) {
	types := make([][]string, len(samples))
	var order []string
	seen := map[string]bool{}
	for i, sample := range samples {
		if len(sample) == 0 {
			return nil, dataErrorf("sample %d is empty", i)
		}
		types[i] = splitTypes(sample[0].Type)
		for _, t := range types[i] {
			if !seen[t] {
				seen[t] = true
				order = append(order, t)
			}
		}
	}
	if len(order) < 2 {
		return nil, configErrorf("leave-one-type-out needs at least 2 types, found %d", len(order))
	}

	var results []FoldResult
	for _, held := range order {
		var train, test [][]FeatureRow
		for i, sample := range samples {
			if containsType(types[i], held) {
				test = append(test, sample)
			} else {
				train = append(train, sample)
			}
		}
		if len(train) == 0 || len(test) == 0 {
			continue
		}

		result, err := cv.singleFold(ctx, held, train, test)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (cv *CrossValidator) singleFold(ctx context.Context, id string, train, test [][]FeatureRow) (FoldResult, error) {
	labeler, err := cv.NewLabeler(id)
	if err != nil {
		return FoldResult{}, err
	}

	if err := labeler.Fit(ctx, train); err != nil {
		return FoldResult{}, fmt.Errorf("round %s: %w", id, err)
	}

	probs, err := labeler.PredictProbabilities(ctx, test)
	if err != nil {
		return FoldResult{}, fmt.Errorf("round %s: %w", id, err)
	}

	held := make([][]FeatureRow, len(test))
	for i, sample := range test {
		held[i] = append([]FeatureRow{}, sample...)
	}
	AttachProbabilities(held, probs)

	return FoldResult{ID: id, Samples: held}, nil
}

// FoldSummary reports the mean and standard deviation, across rounds, of
// the mean cluster probability assigned to positively labeled rows.
func FoldSummary(results []FoldResult) (mean, stddev float64, err error) {
	var perFold []float64
	for _, result := range results {
		sum, n := 0.0, 0
		for _, sample := range result.Samples {
			for i := range sample {
				if sample[i].Label == clusterLabel {
					sum += sample[i].Probability
					n++
				}
			}
		}
		if n > 0 {
			perFold = append(perFold, sum/float64(n))
		}
	}
	if len(perFold) == 0 {
		return 0, 0, fmt.Errorf("no positively labeled rows in any round")
	}

	if mean, err = stats.Mean(perFold); err != nil {
		return 0, 0, err
	}
	stddev, err = stats.StandardDeviation(perFold)
	return mean, stddev, err
}

// foldAssignments maps each of n samples to one of k contiguous folds.
func foldAssignments(n, k int) []int {
	folds := make([]int, n)
	base, extra := n/k, n%k
	i := 0
	for fold := 0; fold < k; fold++ {
		size := base
		if fold < extra {
			size++
		}
		for j := 0; j < size; j++ {
			folds[i] = fold
			i++
		}
	}
	return folds
}

func splitTypes(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func containsType(types []string, t string) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

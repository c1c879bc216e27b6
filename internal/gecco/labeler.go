package gecco

import (
	"context"

	"go.uber.org/zap"

	"github.com/souragc/GECCO/logger"
)

// clusterLabel is the canonical token of the cluster-membership class.
const clusterLabel = "1"

// Marginal is a per-position probability distribution over labels.
type Marginal map[string]float64

// CRF is the probabilistic sequence-labeling backend. Training and
// marginal inference are delegated to an external implementation; the
// pipeline only provides extracted features and consumes marginals.
type CRF interface {
	// Fit trains the model over the full batch of samples in one call.
	Fit(ctx context.Context, features [][]FeatureDict, labels [][]string) error

	// Marginals returns the per-position label distribution per sample.
	Marginals(ctx context.Context, features [][]FeatureDict) ([][]Marginal, error)
}

// SequenceLabeler owns a single CRF instance and presents sample-level fit
// and predict operations over feature rows.
type SequenceLabeler struct {
	crf       CRF
	extractor *FeatureExtractor
}

// NewSequenceLabeler wires a feature extractor to a CRF backend.
func NewSequenceLabeler(extractor *FeatureExtractor, crf CRF) *SequenceLabeler {
	return &SequenceLabeler{crf: crf, extractor: extractor}
}

// Fit extracts features and labels from every sample and trains the
// backend in one batch call. Extraction configuration errors abort before
// the backend is touched.
func (l *SequenceLabeler) Fit(ctx context.Context, samples [][]FeatureRow) error {
	features := make([][]FeatureDict, len(samples))
	labels := make([][]string, len(samples))
	for i, sample := range samples {
		x, y, err := l.extractor.Extract(sample)
		if err != nil {
			return err
		}
		features[i] = x
		labels[i] = y
	}

	return l.crf.Fit(ctx, features, labels)
}

// PredictProbabilities extracts features only, asks the backend for
// marginals, and returns the probability of the cluster class merged back
// onto each sample's rows in their original order.
//
// Group extraction produces one probability per group; it is rejoined by
// the grouping key, which requires protein ids to be unique across the
// samples of one batch. A sample whose marginals never mention the cluster
// class gets zero mass everywhere, with a warning: that is a data-quality
// signal, not a programming error.
func (l *SequenceLabeler) PredictProbabilities(ctx context.Context, samples [][]FeatureRow) ([][]float64, error) {
	if err := l.checkUniqueGroups(samples); err != nil {
		return nil, err
	}

	features := make([][]FeatureDict, len(samples))
	for i, sample := range samples {
		x, _, err := l.extractor.Extract(sample)
		if err != nil {
			return nil, err
		}
		features[i] = x
	}

	marginals, err := l.crf.Marginals(ctx, features)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(samples))
	for i, sample := range marginals {
		probs := make([]float64, len(sample))
		degenerate := false
		for j, m := range sample {
			p, ok := m[clusterLabel]
			if !ok {
				degenerate = true
				break
			}
			probs[j] = p
		}
		if degenerate {
			logger.Warn(
				"cluster probabilities of the sample are zero; the input data may be malformed",
				zap.Int("sample", i),
			)
			probs = make([]float64, len(sample))
		}

		if l.extractor.Mode() == ModeGroup {
			out[i], err = l.mergeGrouped(samples[i], probs)
			if err != nil {
				return nil, err
			}
		} else {
			if len(probs) != len(samples[i]) {
				return nil, dataErrorf(
					"sample %d: %d marginals for %d rows", i, len(probs), len(samples[i]))
			}
			out[i] = probs
		}
	}

	return out, nil
}

// mergeGrouped spreads per-group probabilities back onto each row of the
// sample through its grouping key.
func (l *SequenceLabeler) mergeGrouped(rows []FeatureRow, probs []float64) ([]float64, error) {
	byGroup := map[string]float64{}
	order := 0
	for i := range rows {
		key, _ := rows[i].Value(l.extractor.GroupColumn())
		if _, seen := byGroup[key]; !seen {
			if order >= len(probs) {
				return nil, dataErrorf("more groups than predicted probabilities")
			}
			byGroup[key] = probs[order]
			order++
		}
	}
	if order != len(probs) {
		return nil, dataErrorf("%d probabilities predicted for %d groups", len(probs), order)
	}

	merged := make([]float64, len(rows))
	for i := range rows {
		key, _ := rows[i].Value(l.extractor.GroupColumn())
		merged[i] = byGroup[key]
	}
	return merged, nil
}

// checkUniqueGroups rejects batches where the same grouping key appears in
// more than one sample, since the rejoin would be ambiguous.
func (l *SequenceLabeler) checkUniqueGroups(samples [][]FeatureRow) error {
	if l.extractor.Mode() != ModeGroup {
		return nil
	}

	seen := map[string]int{}
	for i, sample := range samples {
		for j := range sample {
			key, _ := sample[j].Value(l.extractor.GroupColumn())
			if prev, ok := seen[key]; ok && prev != i {
				return dataErrorf(
					"grouping key %q appears in samples %d and %d; keys must be unique within a batch",
					key, prev, i)
			}
			seen[key] = i
		}
	}
	return nil
}

// AttachProbabilities writes predicted probabilities back onto the rows of
// each sample, in place.
func AttachProbabilities(samples [][]FeatureRow, probs [][]float64) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j].Probability = probs[i][j]
		}
	}
}

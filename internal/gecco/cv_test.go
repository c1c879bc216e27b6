package gecco

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cvSamples builds n single-row samples, each on its own sequence and
// protein, labeled positive with the given type.
func cvSamples(n int, bgcType string) [][]FeatureRow {
	samples := make([][]FeatureRow, n)
	for i := range samples {
		samples[i] = []FeatureRow{{
			SeqID:     fmt.Sprintf("seq%d", i+1),
			ProteinID: fmt.Sprintf("seq%d_1", i+1),
			Start:     0,
			End:       100,
			Domain:    "PF00001",
			Label:     "1",
			Type:      bgcType,
		}}
	}
	return samples
}

// constantValidator yields a fresh labeler per round whose backend always
// predicts the given cluster probability.
func constantValidator(prob float64) *CrossValidator {
	return &CrossValidator{
		NewLabeler: func(round string) (*SequenceLabeler, error) {
			x, err := NewFeatureExtractor("single", colLabel, "", []string{colDomain}, []string{colRevIEvalue}, 0)
			if err != nil {
				return nil, err
			}
			return NewSequenceLabeler(x, &fakeCRF{prob: prob}), nil
		},
	}
}

func Test_foldAssignments(t *testing.T) {
	tests := []struct {
		n, k int
		want []int
	}{
		{6, 3, []int{0, 0, 1, 1, 2, 2}},
		{7, 3, []int{0, 0, 0, 1, 1, 2, 2}},
		{5, 5, []int{0, 1, 2, 3, 4}},
		{10, 3, []int{0, 0, 0, 0, 1, 1, 1, 2, 2, 2}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d k=%d", tt.n, tt.k), func(t *testing.T) {
			assert.Equal(t, tt.want, foldAssignments(tt.n, tt.k))
		})
	}
}

func Test_KFold(t *testing.T) {
	cv := constantValidator(0.8)
	samples := cvSamples(6, "Polyketide")

	results, err := cv.KFold(context.Background(), samples, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for fold, result := range results {
		assert.Equal(t, fmt.Sprintf("fold%d", fold), result.ID)
		require.Len(t, result.Samples, 2)
		for _, sample := range result.Samples {
			assert.InDelta(t, 0.8, sample[0].Probability, 1e-9)
		}
	}

	// the input samples themselves stay untouched
	for _, sample := range samples {
		assert.Zero(t, sample[0].Probability)
	}
}

func Test_KFold_errors(t *testing.T) {
	cv := constantValidator(0.8)
	samples := cvSamples(3, "")

	_, err := cv.KFold(context.Background(), samples, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = cv.KFold(context.Background(), samples, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func Test_LOTO(t *testing.T) {
	samples := cvSamples(5, "Polyketide")
	for _, sample := range samples[2:] {
		sample[0].Type = "NRP"
	}

	cv := constantValidator(0.6)
	results, err := cv.LOTO(context.Background(), samples)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// rounds appear in first-seen type order and hold out every sample of
	// the type
	assert.Equal(t, "Polyketide", results[0].ID)
	assert.Len(t, results[0].Samples, 2)
	assert.Equal(t, "NRP", results[1].ID)
	assert.Len(t, results[1].Samples, 3)
}

func Test_LOTO_multiTypeSample(t *testing.T) {
	samples := cvSamples(4, "Polyketide")
	samples[1][0].Type = "Polyketide,NRP"
	samples[2][0].Type = "NRP"
	samples[3][0].Type = "NRP"

	cv := constantValidator(0.6)
	results, err := cv.LOTO(context.Background(), samples)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// the multi-type sample is held out in both rounds
	assert.Len(t, results[0].Samples, 2)
	assert.Len(t, results[1].Samples, 3)
}

func Test_LOTO_singleType(t *testing.T) {
	cv := constantValidator(0.6)
	_, err := cv.LOTO(context.Background(), cvSamples(3, "Polyketide"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func Test_FoldSummary(t *testing.T) {
	results := []FoldResult{
		{ID: "fold0", Samples: [][]FeatureRow{{{Label: "1", Probability: 0.8}, {Label: "0", Probability: 0.9}}}},
		{ID: "fold1", Samples: [][]FeatureRow{{{Label: "1", Probability: 0.4}}}},
	}

	mean, stddev, err := FoldSummary(results)
	require.NoError(t, err)

	// negative rows never contribute: fold means are 0.8 and 0.4
	assert.InDelta(t, 0.6, mean, 1e-9)
	assert.InDelta(t, 0.2, stddev, 1e-9)
}

func Test_FoldSummary_noPositives(t *testing.T) {
	results := []FoldResult{
		{ID: "fold0", Samples: [][]FeatureRow{{{Label: "0", Probability: 0.9}}}},
	}
	_, _, err := FoldSummary(results)
	require.Error(t, err)
}

func Test_splitTypes(t *testing.T) {
	assert.Equal(t, []string{"Polyketide", "NRP"}, splitTypes("Polyketide, NRP"))
	assert.Equal(t, []string{"Terpene"}, splitTypes("Terpene"))
	assert.Nil(t, splitTypes(""))
}

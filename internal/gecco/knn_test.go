package gecco

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseDistanceMetric(t *testing.T) {
	for _, valid := range []string{"jensenshannon", "tanimoto"} {
		metric, err := ParseDistanceMetric(valid)
		require.NoError(t, err)
		assert.Equal(t, DistanceMetric(valid), metric)
	}

	_, err := ParseDistanceMetric("euclidean")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func Test_FitPredict_majority(t *testing.T) {
	train := [][]float64{
		{5, 0, 0},
		{4, 1, 0},
		{0, 5, 0},
		{0, 0, 5},
	}
	labels := []string{"Polyketide", "Polyketide", "NRP", "Terpene"}

	c := NewTypeClassifier(MetricJensenShannon, 3)
	preds, err := c.FitPredict(train, [][]float64{{6, 1, 0}}, labels)
	require.NoError(t, err)
	require.Len(t, preds, 1)

	assert.Equal(t, []string{"Polyketide"}, preds[0].Types)
	assert.InDelta(t, 2.0/3.0, preds[0].Probability, 1e-9)
	assert.Equal(t, "Polyketide", preds[0].Type())
}

func Test_FitPredict_tieReportsAllTypes(t *testing.T) {
	train := [][]float64{
		{1, 0},
		{0, 1},
	}
	labels := []string{"Polyketide", "NRP"}

	c := NewTypeClassifier(MetricTanimoto, 2)
	preds, err := c.FitPredict(train, [][]float64{{1, 1}}, labels)
	require.NoError(t, err)
	require.Len(t, preds, 1)

	// both neighbors vote once; the tie is surfaced, alphabetically
	assert.Equal(t, []string{"NRP", "Polyketide"}, preds[0].Types)
	assert.InDelta(t, 0.5, preds[0].Probability, 1e-9)
	assert.Equal(t, "NRP,Polyketide", preds[0].Type())
}

func Test_FitPredict_clipsNeighbors(t *testing.T) {
	train := [][]float64{{1, 0}, {0, 1}}
	labels := []string{"NRP", "NRP"}

	c := NewTypeClassifier(MetricTanimoto, 10)
	preds, err := c.FitPredict(train, [][]float64{{1, 0}}, labels)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, []string{"NRP"}, preds[0].Types)
	assert.InDelta(t, 1.0, preds[0].Probability, 1e-9)
}

func Test_FitPredict_errors(t *testing.T) {
	c := NewTypeClassifier(MetricTanimoto, 3)

	_, err := c.FitPredict(nil, [][]float64{{1}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = c.FitPredict([][]float64{{1}}, nil, []string{"NRP", "Terpene"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataConsistency))

	c.Neighbors = 0
	_, err = c.FitPredict([][]float64{{1}}, nil, []string{"NRP"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	c.Neighbors = 1
	_, err = c.FitPredict([][]float64{{1, 0}}, [][]float64{{1}}, []string{"NRP"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataConsistency))
}

func Test_tanimotoDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical presence", []float64{2, 0, 1}, []float64{5, 0, 3}, 0},
		{"disjoint presence", []float64{1, 0}, []float64{0, 1}, 1},
		{"half shared", []float64{1, 1}, []float64{1, 0}, 0.5},
		{"both empty", []float64{0, 0}, []float64{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tanimotoDistance(tt.a, tt.b), 1e-9)
		})
	}
}

func Test_TypePrediction_unknown(t *testing.T) {
	assert.Equal(t, "Unknown", TypePrediction{}.Type())
}

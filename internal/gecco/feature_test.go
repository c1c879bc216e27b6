package gecco

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewFeatureExtractor_errors(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		groupCol string
		features []string
		weights  []string
		overlap  int
	}{
		{"unknown mode", "windowed", colProteinID, []string{colDomain}, []string{colRevIEvalue}, 0},
		{"group without grouping column", "group", "", []string{colDomain}, []string{colRevIEvalue}, 0},
		{"no feature columns", "single", colProteinID, nil, nil, 0},
		{"mismatched parallel lists", "single", colProteinID, []string{colDomain}, []string{colRevIEvalue, "1"}, 0},
		{"negative overlap", "overlap", colProteinID, []string{colDomain}, []string{colRevIEvalue}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFeatureExtractor(tt.mode, colLabel, tt.groupCol, tt.features, tt.weights, tt.overlap)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func Test_ParseExtractionMode(t *testing.T) {
	for _, valid := range []string{"single", "overlap", "group"} {
		mode, err := ParseExtractionMode(valid)
		require.NoError(t, err)
		assert.Equal(t, ExtractionMode(valid), mode)
	}

	_, err := ParseExtractionMode("Single")
	require.Error(t, err)

	var unknown *UnknownModeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Single", unknown.Mode)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func Test_Extract_single(t *testing.T) {
	x, err := NewFeatureExtractor("single", colLabel, "", []string{colDomain}, []string{colRevIEvalue}, 0)
	require.NoError(t, err)

	rows := []FeatureRow{
		{ProteinID: "p1", Domain: "PF00001", RevIEvalue: 0.9, Label: "1"},
		{ProteinID: "p1", Domain: "PF00002", RevIEvalue: 0.5, Label: "1"},
		{ProteinID: "p2", Domain: "PF00001", RevIEvalue: 0.3, Label: "0"},
	}

	feats, labels, err := x.Extract(rows)
	require.NoError(t, err)

	require.Len(t, feats, 3)
	assert.Equal(t, FeatureDict{"PF00001": 0.9}, feats[0])
	assert.Equal(t, FeatureDict{"PF00002": 0.5}, feats[1])
	assert.Equal(t, FeatureDict{"PF00001": 0.3}, feats[2])
	assert.Equal(t, []string{"1", "1", "0"}, labels)
}

func Test_Extract_overlap(t *testing.T) {
	x, err := NewFeatureExtractor("overlap", "", "", []string{colDomain}, []string{colRevIEvalue}, 1)
	require.NoError(t, err)

	rows := []FeatureRow{
		{Domain: "PF00001", RevIEvalue: 0.9},
		{Domain: "PF00002", RevIEvalue: 0.5},
		{Domain: "PF00003", RevIEvalue: 0.3},
	}

	feats, labels, err := x.Extract(rows)
	require.NoError(t, err)
	assert.Nil(t, labels)

	require.Len(t, feats, 3)
	// windows are clipped at the sample boundaries
	assert.Equal(t, FeatureDict{"PF00001": 0.9, "PF00002": 0.5}, feats[0])
	assert.Equal(t, FeatureDict{"PF00001": 0.9, "PF00002": 0.5, "PF00003": 0.3}, feats[1])
	assert.Equal(t, FeatureDict{"PF00002": 0.5, "PF00003": 0.3}, feats[2])
}

func Test_Extract_group(t *testing.T) {
	x, err := NewFeatureExtractor("group", colLabel, colProteinID, []string{colDomain}, []string{colRevIEvalue}, 0)
	require.NoError(t, err)

	rows := []FeatureRow{
		{ProteinID: "p1", Domain: "PF00001", RevIEvalue: 0.9, Label: "1"},
		{ProteinID: "p1", Domain: "PF00002", RevIEvalue: 0.5, Label: "0"},
		{ProteinID: "p2", Domain: "PF00001", RevIEvalue: 0.3, Label: "0"},
		{ProteinID: "p1", Domain: "PF00003", RevIEvalue: 0.2, Label: "0"},
	}

	feats, labels, err := x.Extract(rows)
	require.NoError(t, err)

	// one dict per protein, in first-seen order; rows of a group can be
	// interleaved with other groups
	require.Len(t, feats, 2)
	assert.Equal(t, FeatureDict{"PF00001": 0.9, "PF00002": 0.5, "PF00003": 0.2}, feats[0])
	assert.Equal(t, FeatureDict{"PF00001": 0.3}, feats[1])

	// the group's label is its first row's label
	assert.Equal(t, []string{"1", "0"}, labels)
}

func Test_Extract_collisionKeepsMax(t *testing.T) {
	x, err := NewFeatureExtractor("group", "", colProteinID, []string{colDomain}, []string{colRevIEvalue}, 0)
	require.NoError(t, err)

	rows := []FeatureRow{
		{ProteinID: "p1", Domain: "PF00001", RevIEvalue: 0.4},
		{ProteinID: "p1", Domain: "PF00001", RevIEvalue: 0.9},
		{ProteinID: "p1", Domain: "PF00001", RevIEvalue: 0.6},
	}

	feats, _, err := x.Extract(rows)
	require.NoError(t, err)
	require.Len(t, feats, 1)
	assert.Equal(t, FeatureDict{"PF00001": 0.9}, feats[0])
}

func Test_Extract_missingColumnFallsBackToName(t *testing.T) {
	// a feature column the rows don't have contributes its own name as a
	// constant key, so a literal-weight bias feature can be configured
	x, err := NewFeatureExtractor("single", "", "", []string{colDomain, "bias"}, []string{colRevIEvalue, "1"}, 0)
	require.NoError(t, err)

	feats, _, err := x.Extract([]FeatureRow{{Domain: "PF00001", RevIEvalue: 0.7}})
	require.NoError(t, err)
	require.Len(t, feats, 1)
	assert.Equal(t, FeatureDict{"PF00001": 0.7, "bias": 1}, feats[0])
}

func Test_labelCanonicalization(t *testing.T) {
	x, err := NewFeatureExtractor("single", colLabel, "", []string{colDomain}, []string{colRevIEvalue}, 0)
	require.NoError(t, err)

	rows := []FeatureRow{
		{Domain: "PF00001", Label: "1.0"},
		{Domain: "PF00002", Label: "0.0"},
		{Domain: "PF00003", Label: "ambiguous"},
	}

	_, labels, err := x.Extract(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "0", "ambiguous"}, labels)
}

func Test_Extract_emptySample(t *testing.T) {
	x, err := NewFeatureExtractor("group", colLabel, colProteinID, []string{colDomain}, []string{colRevIEvalue}, 0)
	require.NoError(t, err)

	feats, labels, err := x.Extract(nil)
	require.NoError(t, err)
	assert.Empty(t, feats)
	assert.Empty(t, labels)
}

package gecco

import (
	"strconv"
)

// ExtractionMode determines how feature dicts are built from rows.
type ExtractionMode string

const (
	// ModeSingle builds one feature dict per row.
	ModeSingle ExtractionMode = "single"

	// ModeOverlap builds one feature dict per row from a sliding window
	// of rows centered on it.
	ModeOverlap ExtractionMode = "overlap"

	// ModeGroup builds one feature dict per group of rows sharing a
	// grouping key, eg one dict per protein.
	ModeGroup ExtractionMode = "group"
)

// ParseExtractionMode validates an extraction mode name.
func ParseExtractionMode(s string) (ExtractionMode, error) {
	switch ExtractionMode(s) {
	case ModeSingle, ModeOverlap, ModeGroup:
		return ExtractionMode(s), nil
	}
	return "", &UnknownModeError{Mode: s}
}

// FeatureDict maps categorical feature keys to local weights: the
// observation format the CRF backend consumes.
type FeatureDict map[string]float64

// weightSource is either a literal weight or a column to resolve per row.
type weightSource struct {
	column  string
	literal float64
	isValue bool
}

// FeatureExtractor turns an ordered sample of feature rows into the
// (features, labels) pair consumed by the sequence labeler.
type FeatureExtractor struct {
	mode     ExtractionMode
	features []string
	weights  []weightSource
	labelCol string
	groupCol string
	overlap  int
}

// NewFeatureExtractor builds an extractor. featureCols and weightCols are
// parallel; each weight is either a numeric literal or the name of a column
// to resolve per row. labelCol may be empty for prediction-only use.
// groupCol is required for group mode. Configuration problems are reported
// here, before any row is processed.
func NewFeatureExtractor(mode, labelCol, groupCol string, featureCols, weightCols []string, overlap int) (*FeatureExtractor, error) {
	parsed, err := ParseExtractionMode(mode)
	if err != nil {
		return nil, err
	}
	if parsed == ModeGroup && groupCol == "" {
		return nil, configErrorf("group extraction requires a grouping column")
	}
	if len(featureCols) == 0 {
		return nil, configErrorf("at least one feature column is required")
	}
	if len(featureCols) != len(weightCols) {
		return nil, configErrorf(
			"feature columns (%d) and weight columns (%d) must be parallel",
			len(featureCols), len(weightCols))
	}
	if parsed == ModeOverlap && overlap < 0 {
		return nil, configErrorf("overlap must not be negative, got %d", overlap)
	}

	weights := make([]weightSource, len(weightCols))
	for i, w := range weightCols {
		if f, err := strconv.ParseFloat(w, 64); err == nil {
			weights[i] = weightSource{literal: f, isValue: true}
		} else {
			weights[i] = weightSource{column: w}
		}
	}

	return &FeatureExtractor{
		mode:     parsed,
		features: featureCols,
		weights:  weights,
		labelCol: labelCol,
		groupCol: groupCol,
		overlap:  overlap,
	}, nil
}

// Mode returns the configured extraction mode.
func (x *FeatureExtractor) Mode() ExtractionMode {
	return x.mode
}

// GroupColumn returns the configured grouping column.
func (x *FeatureExtractor) GroupColumn() string {
	return x.groupCol
}

// Extract turns one ordered sample into feature dicts and labels. In group
// mode one dict and one label are produced per group; otherwise one per
// row. Labels are nil when no label column is configured.
func (x *FeatureExtractor) Extract(rows []FeatureRow) ([]FeatureDict, []string, error) {
	switch x.mode {
	case ModeSingle:
		return x.extractSingle(rows), x.extractLabels(rows), nil
	case ModeOverlap:
		return x.extractOverlapping(rows), x.extractLabels(rows), nil
	case ModeGroup:
		feats, labels := x.extractGrouped(rows)
		return feats, labels, nil
	}
	// unreachable: the mode was validated at construction
	return nil, nil, &UnknownModeError{Mode: string(x.mode)}
}

func (x *FeatureExtractor) extractSingle(rows []FeatureRow) []FeatureDict {
	feats := make([]FeatureDict, len(rows))
	for i := range rows {
		dict := FeatureDict{}
		x.accumulate(dict, &rows[i])
		feats[i] = dict
	}
	return feats
}

func (x *FeatureExtractor) extractOverlapping(rows []FeatureRow) []FeatureDict {
	feats := make([]FeatureDict, len(rows))
	for i := range rows {
		lo := i - x.overlap
		if lo < 0 {
			lo = 0
		}
		hi := i + x.overlap + 1
		if hi > len(rows) {
			hi = len(rows)
		}

		dict := FeatureDict{}
		for j := lo; j < hi; j++ {
			x.accumulate(dict, &rows[j])
		}
		feats[i] = dict
	}
	return feats
}

func (x *FeatureExtractor) extractGrouped(rows []FeatureRow) ([]FeatureDict, []string) {
	var feats []FeatureDict
	var labels []string
	index := map[string]int{} // group key -> position, first-seen order

	for i := range rows {
		key, _ := rows[i].Value(x.groupCol)
		pos, seen := index[key]
		if !seen {
			pos = len(feats)
			index[key] = pos
			feats = append(feats, FeatureDict{})
			if x.labelCol != "" {
				// the group's label is its first row's label
				labels = append(labels, x.label(&rows[i]))
			}
		}
		x.accumulate(feats[pos], &rows[i])
	}

	if x.labelCol == "" {
		return feats, nil
	}
	return feats, labels
}

func (x *FeatureExtractor) extractLabels(rows []FeatureRow) []string {
	if x.labelCol == "" {
		return nil
	}
	labels := make([]string, len(rows))
	for i := range rows {
		labels[i] = x.label(&rows[i])
	}
	return labels
}

// label converts a raw label value into a canonical string token, so the
// backend always sees stable categorical labels ("1.0" and "1" collapse).
func (x *FeatureExtractor) label(row *FeatureRow) string {
	raw, _ := row.Value(x.labelCol)
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return raw
}

// accumulate folds one row into a feature dict. The feature key is the
// row's value for the feature column, falling back to the column name
// itself when the row has no such column. On key collision the maximum
// weight wins; changing this to a sum silently changes model behavior.
func (x *FeatureExtractor) accumulate(dict FeatureDict, row *FeatureRow) {
	for i, col := range x.features {
		key, ok := row.Value(col)
		if !ok {
			key = col
		}

		var val float64
		if x.weights[i].isValue {
			val = x.weights[i].literal
		} else {
			val, _ = row.Number(x.weights[i].column)
		}

		if prev, seen := dict[key]; !seen || val > prev {
			dict[key] = val
		}
	}
}

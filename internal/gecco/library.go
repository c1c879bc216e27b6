package gecco

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReferenceLibrary is the labeled matrix of known-cluster domain
// compositions the type classifier votes against. It is immutable once
// loaded and shared read-only across all predictions.
type ReferenceLibrary struct {
	// Vocabulary is the ordered domain identifiers of the matrix columns
	Vocabulary []string

	// IDs of the reference clusters, one per row
	IDs []string

	// Compositions is the domain composition matrix, one row per cluster
	Compositions [][]float64

	// Types is the product type of each reference cluster
	Types []string

	// Subtypes is the product subtype of each reference cluster, if any
	Subtypes []string
}

// LoadReferenceLibrary reads the composition matrix and type label tables
// from their tab-separated files.
func LoadReferenceLibrary(compositionPath, typeLabelPath string) (*ReferenceLibrary, error) {
	comp, err := os.Open(compositionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open composition matrix: %w", err)
	}
	defer comp.Close()

	labels, err := os.Open(typeLabelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open type labels: %w", err)
	}
	defer labels.Close()

	return ReadReferenceLibrary(comp, labels)
}

// ReadReferenceLibrary parses the two reference tables. The composition
// table's first column is the reference cluster id and the remaining
// columns are the domain vocabulary; the label table carries cluster_type
// and optionally subtype columns, one row per reference cluster.
func ReadReferenceLibrary(composition, typeLabels io.Reader) (*ReferenceLibrary, error) {
	reader := csv.NewReader(composition)
	reader.Comma = '\t'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read composition matrix: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("composition matrix has no reference rows")
	}

	lib := &ReferenceLibrary{
		Vocabulary: append([]string{}, records[0][1:]...),
	}
	for n, record := range records[1:] {
		if len(record) != len(lib.Vocabulary)+1 {
			return nil, dataErrorf(
				"composition row %d has %d columns, expected %d",
				n+1, len(record), len(lib.Vocabulary)+1)
		}

		row := make([]float64, len(lib.Vocabulary))
		for i, field := range record[1:] {
			if row[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
				return nil, fmt.Errorf("bad composition value on row %d: %w", n+1, err)
			}
		}
		lib.IDs = append(lib.IDs, record[0])
		lib.Compositions = append(lib.Compositions, row)
	}

	if err := lib.readTypeLabels(typeLabels); err != nil {
		return nil, err
	}
	if len(lib.Types) != len(lib.Compositions) {
		return nil, dataErrorf(
			"%d type labels for %d reference compositions",
			len(lib.Types), len(lib.Compositions))
	}
	return lib, nil
}

func (lib *ReferenceLibrary) readTypeLabels(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read type labels: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("type label table is empty")
	}

	typeCol, subtypeCol := -1, -1
	for i, name := range records[0] {
		switch strings.TrimSpace(name) {
		case "cluster_type":
			typeCol = i
		case "subtype":
			subtypeCol = i
		}
	}
	if typeCol < 0 {
		return fmt.Errorf("type label table is missing the cluster_type column")
	}

	for _, record := range records[1:] {
		lib.Types = append(lib.Types, strings.TrimSpace(record[typeCol]))
		if subtypeCol >= 0 && subtypeCol < len(record) {
			lib.Subtypes = append(lib.Subtypes, strings.TrimSpace(record[subtypeCol]))
		} else {
			lib.Subtypes = append(lib.Subtypes, "")
		}
	}
	return nil
}

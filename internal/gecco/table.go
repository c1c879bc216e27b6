package gecco

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// feature table column names, as produced by the annotate step
const (
	colSeqID       = "sequence_id"
	colProteinID   = "protein_id"
	colStart       = "start"
	colEnd         = "end"
	colStrand      = "strand"
	colDomain      = "domain"
	colDomainStart = "domain_start"
	colDomainEnd   = "domain_end"
	colHMM         = "hmm"
	colIEvalue     = "i_Evalue"
	colRevIEvalue  = "rev_i_Evalue"
	colPValue      = "p_value"
	colProbability = "p_pred"
	colLabel       = "BGC"
	colType        = "BGC_type"
)

// pfamVersion matches versioned Pfam accessions, eg PF00106.21
var pfamVersion = regexp.MustCompile(`^(PF\d+)\.\d+$`)

// FeatureRow is one domain hit joined to its gene and protein: the unit
// fed to the feature extractor.
type FeatureRow struct {
	// SeqID of the source sequence
	SeqID string

	// ProteinID of the protein the domain was found on
	ProteinID string

	// Start of the gene on the source sequence
	Start int

	// End of the gene on the source sequence
	End int

	// Strand of the gene
	Strand Strand

	// Domain accession of the hit
	Domain string

	// DomainStart within the protein
	DomainStart int

	// DomainEnd within the protein
	DomainEnd int

	// HMM library the domain came from
	HMM string

	// IEvalue is the independent e-value of the hit
	IEvalue float64

	// RevIEvalue is 1 - IEvalue, the default local feature weight
	RevIEvalue float64

	// PValue of the hit
	PValue float64

	// Probability of cluster membership attached after prediction
	Probability float64

	// Label is the class annotation for training ("1" inside a BGC)
	Label string

	// Type is the BGC type annotation used for stratified splits
	Type string
}

// Value returns the row's string value for a named column.
func (r *FeatureRow) Value(col string) (string, bool) {
	switch col {
	case colSeqID:
		return r.SeqID, true
	case colProteinID:
		return r.ProteinID, true
	case colStrand:
		return r.Strand.Sign(), true
	case colDomain:
		return r.Domain, true
	case colHMM:
		return r.HMM, true
	case colLabel:
		return r.Label, true
	case colType:
		return r.Type, true
	}
	return "", false
}

// Number returns the row's numeric value for a named column.
func (r *FeatureRow) Number(col string) (float64, bool) {
	switch col {
	case colStart:
		return float64(r.Start), true
	case colEnd:
		return float64(r.End), true
	case colDomainStart:
		return float64(r.DomainStart), true
	case colDomainEnd:
		return float64(r.DomainEnd), true
	case colIEvalue:
		return r.IEvalue, true
	case colRevIEvalue:
		return r.RevIEvalue, true
	case colPValue:
		return r.PValue, true
	case colProbability:
		return r.Probability, true
	}
	return 0, false
}

// FeatureTable is an ordered collection of feature rows, one per domain
// hit, read from or written to a tab-separated table.
type FeatureTable struct {
	Rows []FeatureRow

	// HasProbability is true when the table carries a p_pred column
	HasProbability bool

	// HasLabel is true when the table carries a BGC label column
	HasLabel bool

	// HasType is true when the table carries a BGC_type column
	HasType bool
}

// LoadFeatureTable reads a tab-separated feature table with a header row.
func LoadFeatureTable(r io.Reader) (*FeatureTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read feature table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("feature table is empty")
	}

	header := map[string]int{}
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colSeqID, colProteinID, colStart, colEnd, colStrand, colDomain, colIEvalue} {
		if _, ok := header[required]; !ok {
			return nil, fmt.Errorf("feature table is missing the %q column", required)
		}
	}

	table := &FeatureTable{}
	_, table.HasProbability = header[colProbability]
	_, table.HasLabel = header[colLabel]
	_, table.HasType = header[colType]

	field := func(record []string, col string) string {
		i, ok := header[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	numField := func(record []string, col string) float64 {
		f, _ := strconv.ParseFloat(field(record, col), 64)
		return f
	}

	for n, record := range records[1:] {
		row := FeatureRow{
			SeqID:       field(record, colSeqID),
			ProteinID:   field(record, colProteinID),
			Strand:      ParseStrand(field(record, colStrand)),
			Domain:      field(record, colDomain),
			HMM:         field(record, colHMM),
			IEvalue:     numField(record, colIEvalue),
			PValue:      numField(record, colPValue),
			Label:       field(record, colLabel),
			Type:        field(record, colType),
			Probability: numField(record, colProbability),
		}

		var err error
		if row.Start, err = strconv.Atoi(field(record, colStart)); err != nil {
			return nil, fmt.Errorf("bad start coordinate on row %d: %w", n+1, err)
		}
		if row.End, err = strconv.Atoi(field(record, colEnd)); err != nil {
			return nil, fmt.Errorf("bad end coordinate on row %d: %w", n+1, err)
		}
		if row.Start >= row.End {
			return nil, dataErrorf("row %d: start %d is not before end %d", n+1, row.Start, row.End)
		}

		row.DomainStart, _ = strconv.Atoi(field(record, colDomainStart))
		row.DomainEnd, _ = strconv.Atoi(field(record, colDomainEnd))

		if _, ok := header[colRevIEvalue]; ok {
			row.RevIEvalue = numField(record, colRevIEvalue)
		} else {
			row.RevIEvalue = 1 - row.IEvalue
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// Write writes the table as a tab-separated file with a header row.
func (t *FeatureTable) Write(w io.Writer) error {
	header := []string{
		colSeqID, colProteinID, colStart, colEnd, colStrand, colDomain,
		colDomainStart, colDomainEnd, colHMM, colIEvalue, colRevIEvalue,
	}
	if t.HasProbability {
		header = append(header, colProbability)
	}
	if t.HasLabel {
		header = append(header, colLabel)
	}
	if t.HasType {
		header = append(header, colType)
	}

	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, row := range t.Rows {
		fields := []string{
			row.SeqID,
			row.ProteinID,
			strconv.Itoa(row.Start),
			strconv.Itoa(row.End),
			row.Strand.Sign(),
			row.Domain,
			strconv.Itoa(row.DomainStart),
			strconv.Itoa(row.DomainEnd),
			row.HMM,
			strconv.FormatFloat(row.IEvalue, 'g', -1, 64),
			strconv.FormatFloat(row.RevIEvalue, 'g', -1, 64),
		}
		if t.HasProbability {
			fields = append(fields, strconv.FormatFloat(row.Probability, 'g', -1, 64))
		}
		if t.HasLabel {
			fields = append(fields, row.Label)
		}
		if t.HasType {
			fields = append(fields, row.Type)
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}

	return nil
}

// FilterEvalue drops rows whose independent e-value is at or above max.
func (t *FeatureTable) FilterEvalue(max float64) {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if row.IEvalue < max {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

// RelabelAccessions strips Pfam version suffixes, eg PF00106.21 to PF00106.
func (t *FeatureTable) RelabelAccessions() {
	for i := range t.Rows {
		if m := pfamVersion.FindStringSubmatch(t.Rows[i].Domain); m != nil {
			t.Rows[i].Domain = m[1]
		}
	}
}

// Sort orders rows by sequence, gene coordinate, then domain coordinate.
// A stable genomic order is required before segmentation.
func (t *FeatureTable) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		if a.SeqID != b.SeqID {
			return a.SeqID < b.SeqID
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.DomainStart < b.DomainStart
	})
}

// SplitBySequence groups rows into one sample per source sequence, in
// first-seen order.
func (t *FeatureTable) SplitBySequence() [][]FeatureRow {
	var order []string
	bySeq := map[string][]FeatureRow{}
	for _, row := range t.Rows {
		if _, ok := bySeq[row.SeqID]; !ok {
			order = append(order, row.SeqID)
		}
		bySeq[row.SeqID] = append(bySeq[row.SeqID], row)
	}

	samples := make([][]FeatureRow, 0, len(order))
	for _, id := range order {
		samples = append(samples, bySeq[id])
	}
	return samples
}

// RowsFromGenes flattens annotated genes into feature rows, one per domain.
func RowsFromGenes(genes []*Gene) []FeatureRow {
	var rows []FeatureRow
	for _, gene := range genes {
		if gene.Protein == nil {
			continue
		}
		for _, d := range gene.Protein.Domains {
			rows = append(rows, FeatureRow{
				SeqID:       gene.SeqID,
				ProteinID:   gene.Protein.ID,
				Start:       gene.Start,
				End:         gene.End,
				Strand:      gene.Strand,
				Domain:      d.Name,
				DomainStart: d.Start,
				DomainEnd:   d.End,
				HMM:         d.HMM,
				IEvalue:     d.IEvalue,
				RevIEvalue:  1 - d.IEvalue,
				PValue:      d.PValue,
			})
		}
	}
	return rows
}

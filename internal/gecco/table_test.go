package gecco

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const featureTSV = `sequence_id	protein_id	start	end	strand	domain	domain_start	domain_end	hmm	i_Evalue	BGC	BGC_type
seq2	seq2_1	10	500	+	PF00668.23	5	120	Pfam	1e-20	1	NRP
seq1	seq1_2	600	900	-	PF00106.21	3	90	Pfam	0.002	0
seq1	seq1_1	100	400	+	PF00501.31	10	200	Pfam	1e-10	1	Polyketide
`

func Test_LoadFeatureTable(t *testing.T) {
	table, err := LoadFeatureTable(strings.NewReader(featureTSV))
	require.NoError(t, err)

	assert.True(t, table.HasLabel)
	assert.True(t, table.HasType)
	assert.False(t, table.HasProbability)
	require.Len(t, table.Rows, 3)

	row := table.Rows[0]
	assert.Equal(t, "seq2", row.SeqID)
	assert.Equal(t, "seq2_1", row.ProteinID)
	assert.Equal(t, 10, row.Start)
	assert.Equal(t, 500, row.End)
	assert.Equal(t, StrandForward, row.Strand)
	assert.Equal(t, "PF00668.23", row.Domain)
	assert.Equal(t, 1e-20, row.IEvalue)
	assert.Equal(t, "1", row.Label)
	assert.Equal(t, "NRP", row.Type)

	// without a rev_i_Evalue column the weight is derived
	assert.InDelta(t, 1-0.002, table.Rows[1].RevIEvalue, 1e-12)
	assert.Equal(t, StrandReverse, table.Rows[1].Strand)
}

func Test_LoadFeatureTable_errors(t *testing.T) {
	tests := []struct {
		name string
		tsv  string
	}{
		{"empty input", ""},
		{
			"missing required column",
			"sequence_id\tprotein_id\tstart\tend\tstrand\n",
		},
		{
			"start after end",
			"sequence_id\tprotein_id\tstart\tend\tstrand\tdomain\ti_Evalue\nseq1\tseq1_1\t500\t100\t+\tPF00001\t1e-5\n",
		},
		{
			"unparsable coordinate",
			"sequence_id\tprotein_id\tstart\tend\tstrand\tdomain\ti_Evalue\nseq1\tseq1_1\tabc\t100\t+\tPF00001\t1e-5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFeatureTable(strings.NewReader(tt.tsv))
			require.Error(t, err)
		})
	}
}

func Test_LoadFeatureTable_startEqualsEnd(t *testing.T) {
	tsv := "sequence_id\tprotein_id\tstart\tend\tstrand\tdomain\ti_Evalue\nseq1\tseq1_1\t100\t100\t+\tPF00001\t1e-5\n"
	_, err := LoadFeatureTable(strings.NewReader(tsv))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataConsistency))
}

func Test_Sort(t *testing.T) {
	table, err := LoadFeatureTable(strings.NewReader(featureTSV))
	require.NoError(t, err)

	table.Sort()
	assert.Equal(t, "seq1_1", table.Rows[0].ProteinID)
	assert.Equal(t, "seq1_2", table.Rows[1].ProteinID)
	assert.Equal(t, "seq2_1", table.Rows[2].ProteinID)
}

func Test_FilterEvalue(t *testing.T) {
	table, err := LoadFeatureTable(strings.NewReader(featureTSV))
	require.NoError(t, err)

	table.FilterEvalue(1e-5)
	require.Len(t, table.Rows, 2)
	for _, row := range table.Rows {
		assert.Less(t, row.IEvalue, 1e-5)
	}
}

func Test_RelabelAccessions(t *testing.T) {
	table := &FeatureTable{Rows: []FeatureRow{
		{Domain: "PF00106.21"},
		{Domain: "PF00501"},
		{Domain: "TIGR01733"},
	}}

	table.RelabelAccessions()
	assert.Equal(t, "PF00106", table.Rows[0].Domain)
	assert.Equal(t, "PF00501", table.Rows[1].Domain)
	assert.Equal(t, "TIGR01733", table.Rows[2].Domain)
}

func Test_SplitBySequence(t *testing.T) {
	table, err := LoadFeatureTable(strings.NewReader(featureTSV))
	require.NoError(t, err)

	// first-seen order, not alphabetical
	samples := table.SplitBySequence()
	require.Len(t, samples, 2)
	assert.Equal(t, "seq2", samples[0][0].SeqID)
	assert.Len(t, samples[1], 2)
}

func Test_Write_roundTrip(t *testing.T) {
	table, err := LoadFeatureTable(strings.NewReader(featureTSV))
	require.NoError(t, err)
	table.HasProbability = true
	table.Rows[0].Probability = 0.75

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))

	again, err := LoadFeatureTable(&buf)
	require.NoError(t, err)
	require.Len(t, again.Rows, 3)
	assert.True(t, again.HasProbability)
	assert.Equal(t, 0.75, again.Rows[0].Probability)
	assert.Equal(t, table.Rows[0].RevIEvalue, again.Rows[0].RevIEvalue)
}

func Test_RowsFromGenes(t *testing.T) {
	genes := []*Gene{
		{
			ID:     "seq1_1",
			SeqID:  "seq1",
			Start:  100,
			End:    400,
			Strand: StrandForward,
			Protein: &Protein{
				ID: "seq1_1",
				Domains: []Domain{
					{Name: "PF00501", Start: 10, End: 200, HMM: "Pfam", IEvalue: 1e-10},
					{Name: "PF00668", Start: 210, End: 260, HMM: "Pfam", IEvalue: 0.001},
				},
			},
		},
		{ID: "seq1_2", SeqID: "seq1", Start: 500, End: 700, Strand: StrandReverse},
	}

	rows := RowsFromGenes(genes)
	require.Len(t, rows, 2, "genes without proteins contribute no rows")

	assert.Equal(t, "PF00501", rows[0].Domain)
	assert.InDelta(t, 1-1e-10, rows[0].RevIEvalue, 1e-15)
	assert.Equal(t, "seq1_1", rows[1].ProteinID)
	assert.Equal(t, "PF00668", rows[1].Domain)
}

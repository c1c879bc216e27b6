package gecco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_genesFromProdigal(t *testing.T) {
	records := []FastaRecord{
		{ID: "seq1_1", Desc: "# 3 # 1385 # 1 # ID=1_1;partial=00", Seq: "MTNKLV*"},
		{ID: "seq1_2", Desc: "# 1500 # 2000 # -1 # ID=1_2", Seq: "MAAA"},
	}

	genes, err := genesFromProdigal(records)
	require.NoError(t, err)
	require.Len(t, genes, 2)

	g := genes[0]
	assert.Equal(t, "seq1_1", g.ID)
	assert.Equal(t, "seq1", g.SeqID)
	assert.Equal(t, 3, g.Start)
	assert.Equal(t, 1385, g.End)
	assert.Equal(t, StrandForward, g.Strand)
	assert.Equal(t, "MTNKLV", g.Protein.Seq, "the stop symbol is trimmed")

	assert.Equal(t, StrandReverse, genes[1].Strand)
	assert.Equal(t, 1500, genes[1].Start)
}

func Test_genesFromProdigal_swapsCoordinates(t *testing.T) {
	genes, err := genesFromProdigal([]FastaRecord{
		{ID: "seq1_1", Desc: "# 900 # 100 # -1 # ID=1_1", Seq: "MA"},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, genes[0].Start)
	assert.Equal(t, 900, genes[0].End)
}

func Test_genesFromProdigal_errors(t *testing.T) {
	_, err := genesFromProdigal([]FastaRecord{{ID: "seq1_1", Desc: "no coordinates", Seq: "MA"}})
	require.Error(t, err)

	_, err = genesFromProdigal([]FastaRecord{{ID: "seq1_1", Desc: "# x # 10 # 1 # ID=1", Seq: "MA"}})
	require.Error(t, err)
}

func Test_ProteinsAsGenes(t *testing.T) {
	records := []FastaRecord{
		{ID: "BGC0001_1", Seq: "MTNK*"},
		{ID: "BGC0001_2", Seq: "MAAACC"},
	}

	genes := ProteinsAsGenes("BGC0001", records)
	require.Len(t, genes, 2)

	assert.Equal(t, "BGC0001", genes[0].SeqID)
	assert.Equal(t, StrandForward, genes[0].Strand)
	assert.Equal(t, "MTNK", genes[0].Protein.Seq)

	// synthetic coordinates preserve the record order
	assert.Less(t, genes[0].Start, genes[0].End)
	assert.Less(t, genes[0].End, genes[1].Start)
	assert.Less(t, genes[1].Start, genes[1].End)
}

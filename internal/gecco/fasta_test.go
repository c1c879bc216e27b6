package gecco

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.fasta")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func Test_ReadFASTA(t *testing.T) {
	path := writeTemp(t, ">seq1_1 # 3 # 1385 # 1\nMTNK\nLVAA\n\n>seq1_2\nMCC\n")

	records, err := ReadFASTA(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "seq1_1", records[0].ID)
	assert.Equal(t, "# 3 # 1385 # 1", records[0].Desc)
	assert.Equal(t, "MTNKLVAA", records[0].Seq)

	assert.Equal(t, "seq1_2", records[1].ID)
	assert.Empty(t, records[1].Desc)
}

func Test_ReadFASTA_empty(t *testing.T) {
	_, err := ReadFASTA(writeTemp(t, "\n\n"))
	require.Error(t, err)

	_, err = ReadFASTA(filepath.Join(t.TempDir(), "missing.fasta"))
	require.Error(t, err)
}

func Test_WriteFASTA_wraps(t *testing.T) {
	long := strings.Repeat("M", 200)

	var buf bytes.Buffer
	require.NoError(t, WriteFASTA(&buf, []FastaRecord{{ID: "p1", Desc: "cluster 1", Seq: long}}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, ">p1 cluster 1", lines[0])
	assert.Len(t, lines[1], 80)
	assert.Len(t, lines[2], 80)
	assert.Len(t, lines[3], 40)
}

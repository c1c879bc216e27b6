package gecco

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// GeneFinder finds protein-coding genes in a genome file. Callers only
// depend on this capability, never on a concrete tool.
type GeneFinder interface {
	FindGenes(ctx context.Context, genomePath string) ([]*Gene, error)
}

// Prodigal is a GeneFinder backed by the prodigal binary.
type Prodigal struct {
	// OutDir receives the intermediate prodigal output files
	OutDir string

	// Metagenome runs prodigal in metagenome mode
	Metagenome bool
}

// FindGenes runs prodigal over the genome and reads the genes back out of
// the translated protein output. Prodigal names each protein
// {sequence_id}_{n} and records the gene coordinates and strand in the
// header.
func (p *Prodigal) FindGenes(ctx context.Context, genomePath string) ([]*Gene, error) {
	if err := os.MkdirAll(p.OutDir, 0755); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(genomePath), filepath.Ext(genomePath))
	proteinsOut := filepath.Join(p.OutDir, base+".proteins.faa")
	genesOut := filepath.Join(p.OutDir, base+".genes.gff")

	flags := []string{
		"-i", genomePath,
		"-a", proteinsOut,
		"-o", genesOut,
		"-f", "gff",
		"-q",
	}
	if p.Metagenome {
		flags = append(flags, "-p", "meta")
	}

	prodigalCmd := exec.CommandContext(ctx, "prodigal", flags...)
	if output, err := prodigalCmd.CombinedOutput(); err != nil {
		return nil, &ExternalToolError{Tool: "prodigal", Output: string(output), Err: err}
	}

	records, err := ReadFASTA(proteinsOut)
	if err != nil {
		return nil, err
	}
	return genesFromProdigal(records)
}

// genesFromProdigal parses prodigal protein headers, which look like
// "seq_1 # 3 # 1385 # 1 # ID=1_1;partial=00;...".
func genesFromProdigal(records []FastaRecord) ([]*Gene, error) {
	genes := make([]*Gene, 0, len(records))
	for _, r := range records {
		fields := strings.Split(r.Desc, "#")
		if len(fields) < 4 {
			return nil, fmt.Errorf("unexpected prodigal header for %s: %q", r.ID, r.Desc)
		}

		start, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("bad start coordinate for %s: %w", r.ID, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("bad end coordinate for %s: %w", r.ID, err)
		}
		if start > end {
			start, end = end, start
		}

		strand := StrandForward
		if strings.TrimSpace(fields[3]) == "-1" {
			strand = StrandReverse
		}

		// prodigal appends _{n} to the source sequence id
		seqID := r.ID
		if i := strings.LastIndex(r.ID, "_"); i > 0 {
			seqID = r.ID[:i]
		}

		genes = append(genes, &Gene{
			ID:     r.ID,
			SeqID:  seqID,
			Start:  start,
			End:    end,
			Strand: strand,
			Protein: &Protein{
				ID:  r.ID,
				Seq: strings.TrimSuffix(r.Seq, "*"),
			},
		})
	}
	return genes, nil
}

// ProteinsAsGenes treats a protein FASTA as an ordered gene list on one
// synthetic source sequence, for runs that skip gene calling. Coordinates
// are synthesized from record order so downstream sorting stays stable.
func ProteinsAsGenes(seqID string, records []FastaRecord) []*Gene {
	genes := make([]*Gene, 0, len(records))
	offset := 0
	for _, r := range records {
		length := 3 * len(r.Seq)
		if length == 0 {
			length = 3
		}
		genes = append(genes, &Gene{
			ID:     r.ID,
			SeqID:  seqID,
			Start:  offset,
			End:    offset + length,
			Strand: StrandForward,
			Protein: &Protein{
				ID:  r.ID,
				Seq: strings.TrimSuffix(r.Seq, "*"),
			},
		})
		offset += length + 1
	}
	return genes
}

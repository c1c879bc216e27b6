package gecco

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// HMM describes one profile library to search proteins against.
type HMM struct {
	// ID of the library, eg Pfam
	ID string

	// Version of the library
	Version string

	// Path to the .hmm file
	Path string

	// RelabelWith is an optional sed-style s/expr/subst/ rewrite applied
	// to matched accessions, for libraries with versioned names
	RelabelWith string
}

// Relabel rewrites a matched domain accession to its canonical form.
func (h *HMM) Relabel(domain string) string {
	if h.RelabelWith == "" {
		return domain
	}

	m := regexp.MustCompile(`^s/(.*)/(.*)/$`).FindStringSubmatch(h.RelabelWith)
	if m == nil {
		return domain
	}
	expr, err := regexp.Compile(m[1])
	if err != nil {
		return domain
	}
	return expr.ReplaceAllString(domain, m[2])
}

// DomainAnnotator annotates the proteins of genes with domains from one
// HMM library. Callers only depend on this capability, never on a
// concrete search engine.
type DomainAnnotator interface {
	AnnotateDomains(ctx context.Context, genes []*Gene) error
}

// HMMSearch is a DomainAnnotator backed by the hmmsearch binary.
type HMMSearch struct {
	// HMM is the library to search against
	HMM HMM

	// CPUs bounds the worker threads of one hmmsearch invocation;
	// 0 leaves the choice to the tool
	CPUs int

	// Cache, when non-nil, skips hmmsearch for protein batches that
	// were already annotated with this library
	Cache *AnnotationCache
}

// AnnotateDomains searches every protein against the library and appends
// the matching domains to each gene's protein, in hit order.
func (s *HMMSearch) AnnotateDomains(ctx context.Context, genes []*Gene) error {
	hits, err := s.Search(ctx, genes)
	if err != nil {
		return err
	}

	byProtein, err := indexByProtein(genes)
	if err != nil {
		return err
	}
	attachHits(byProtein, hits)
	return nil
}

// Search finds the library's domain hits for the proteins of genes
// without mutating them, so several libraries can be searched in
// parallel and attached in order afterwards. Results are served from the
// cache when the same protein batch was searched before.
func (s *HMMSearch) Search(ctx context.Context, genes []*Gene) ([]DomainHit, error) {
	if _, err := indexByProtein(genes); err != nil {
		return nil, err
	}

	var records []FastaRecord
	for _, gene := range genes {
		if gene.Protein == nil || gene.Protein.Seq == "" {
			continue
		}
		records = append(records, FastaRecord{ID: gene.Protein.ID, Seq: gene.Protein.Seq})
	}
	if len(records) == 0 {
		return nil, nil
	}

	digest := proteinDigest(records)
	if s.Cache != nil {
		if hits, ok, err := s.Cache.Get(s.HMM.ID, digest); err != nil {
			return nil, err
		} else if ok {
			return hits, nil
		}
	}

	hits, err := s.search(ctx, records)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Put(s.HMM.ID, digest, hits); err != nil {
			return nil, err
		}
	}
	return hits, nil
}

// indexByProtein maps protein ids to their genes, rejecting duplicates.
func indexByProtein(genes []*Gene) (map[string]*Gene, error) {
	byProtein := make(map[string]*Gene, len(genes))
	for _, gene := range genes {
		if gene.Protein == nil || gene.Protein.Seq == "" {
			continue
		}
		if _, ok := byProtein[gene.Protein.ID]; ok {
			return nil, dataErrorf("duplicate protein id %q in annotation batch", gene.Protein.ID)
		}
		byProtein[gene.Protein.ID] = gene
	}
	return byProtein, nil
}

func (s *HMMSearch) search(ctx context.Context, records []FastaRecord) ([]DomainHit, error) {
	faa, err := os.CreateTemp("", "hmmsearch-*.faa")
	if err != nil {
		return nil, err
	}
	defer os.Remove(faa.Name())

	if err := WriteFASTA(faa, records); err != nil {
		return nil, err
	}
	if err := faa.Close(); err != nil {
		return nil, err
	}

	tblout := filepath.Join(os.TempDir(), filepath.Base(faa.Name())+".domtblout")
	defer os.Remove(tblout)

	flags := []string{
		"--domtblout", tblout,
		"--noali",
	}
	if s.CPUs > 0 {
		flags = append(flags, "--cpu", strconv.Itoa(s.CPUs))
	}
	flags = append(flags, s.HMM.Path, faa.Name())

	searchCmd := exec.CommandContext(ctx, "hmmsearch", flags...)
	if output, err := searchCmd.CombinedOutput(); err != nil {
		return nil, &ExternalToolError{Tool: "hmmsearch", Output: string(output), Err: err}
	}

	return s.parseDomTable(tblout)
}

// DomainHit is one parsed hmmsearch domain table row, cacheable between
// runs.
type DomainHit struct {
	// ProteinID is the target sequence name
	ProteinID string `json:"protein_id"`

	// Domain is the matched accession after relabeling
	Domain string `json:"domain"`

	// HMM is the id of the library the hit came from
	HMM string `json:"hmm"`

	// Start and End are the envelope coordinates on the protein
	Start int `json:"start"`
	End   int `json:"end"`

	// IEvalue is the independent e-value of this domain
	IEvalue float64 `json:"i_evalue"`
}

// parseDomTable reads hmmsearch --domtblout output. Comment lines start
// with #; the remaining lines are whitespace-separated columns.
func (s *HMMSearch) parseDomTable(path string) ([]DomainHit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hmmsearch output: %w", err)
	}
	defer f.Close()

	var hits []DomainHit
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) < 21 {
			continue
		}

		// columns: 0 target, 3 query name, 4 query accession,
		// 12 i-Evalue, 19 env from, 20 env to
		accession := cols[4]
		if accession == "-" {
			accession = cols[3]
		}

		iEvalue, err := strconv.ParseFloat(cols[12], 64)
		if err != nil {
			continue
		}
		envFrom, err := strconv.Atoi(cols[19])
		if err != nil {
			continue
		}
		envTo, err := strconv.Atoi(cols[20])
		if err != nil {
			continue
		}

		hits = append(hits, DomainHit{
			ProteinID: cols[0],
			Domain:    s.HMM.Relabel(accession),
			HMM:       s.HMM.ID,
			Start:     envFrom,
			End:       envTo,
			IEvalue:   iEvalue,
		})
	}
	return hits, scanner.Err()
}

// attachHits appends each hit to its protein's domain list.
func attachHits(byProtein map[string]*Gene, hits []DomainHit) {
	for _, hit := range hits {
		gene, ok := byProtein[hit.ProteinID]
		if !ok {
			continue
		}
		gene.Protein.Domains = append(gene.Protein.Domains, Domain{
			Name:    hit.Domain,
			Start:   hit.Start,
			End:     hit.End,
			HMM:     hit.HMM,
			IEvalue: hit.IEvalue,
			Qualifiers: map[string][]string{
				"inference": {"protein motif"},
				"note":      {fmt.Sprintf("e-value: %g", hit.IEvalue)},
				"db_xref":   {fmt.Sprintf("%s:%s", strings.ToUpper(hit.HMM), hit.Domain)},
			},
		})
	}
}

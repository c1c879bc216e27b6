// Package gecco predicts biosynthetic gene clusters in genomic sequences.
//
// The pipeline chains gene calling (prodigal), protein domain annotation
// (hmmsearch), a conditional random field over per-domain features
// (crfsuite), probability-trace segmentation, and kNN type classification
// against a reference library of known clusters.
package gecco

import (
	"sort"
	"strings"
)

// Strand is the direction of a gene on its source sequence.
type Strand int8

const (
	// StrandForward marks a gene on the coding strand.
	StrandForward Strand = 1

	// StrandReverse marks a gene on the reverse complement strand.
	StrandReverse Strand = -1
)

// Sign returns the strand as it appears in feature tables: + or -.
func (s Strand) Sign() string {
	if s == StrandReverse {
		return "-"
	}
	return "+"
}

// ParseStrand reads a strand from its feature table representation.
func ParseStrand(s string) Strand {
	if strings.TrimSpace(s) == "-" || strings.TrimSpace(s) == "-1" {
		return StrandReverse
	}
	return StrandForward
}

// Domain is a protein domain matched against a reference HMM library.
type Domain struct {
	// Name is the domain accession (eg PF00106)
	Name string

	// Start of the domain within the protein (0-based, Start < End)
	Start int

	// End of the domain within the protein
	End int

	// HMM is the id of the source HMM library
	HMM string

	// IEvalue is the independent e-value of the match
	IEvalue float64

	// PValue of the match
	PValue float64

	// Probability of cluster membership, attached after CRF prediction
	Probability *float64

	// Qualifiers is free-form annotation metadata
	Qualifiers map[string][]string
}

// Protein is an amino-acid sequence with its domain annotations.
type Protein struct {
	// ID of the protein, unique within a source sequence
	ID string

	// Seq is the amino-acid sequence
	Seq string

	// Domains annotated on the protein, in insertion order
	Domains []Domain
}

// SortDomains orders the protein's domains by start coordinate.
func (p *Protein) SortDomains() {
	sort.SliceStable(p.Domains, func(i, j int) bool {
		if p.Domains[i].Start != p.Domains[j].Start {
			return p.Domains[i].Start < p.Domains[j].Start
		}
		return p.Domains[i].End < p.Domains[j].End
	})
}

// Gene is a protein-coding region on a source sequence.
type Gene struct {
	// ID of the gene
	ID string

	// SeqID is the id of the source sequence the gene belongs to
	SeqID string

	// Start of the gene on the source sequence (0-based, Start < End)
	Start int

	// End of the gene on the source sequence
	End int

	// Strand the gene is encoded on
	Strand Strand

	// Protein encoded by the gene
	Protein *Protein
}

// Cluster is a candidate biosynthetic gene cluster: a contiguous run of
// genes on one source sequence.
type Cluster struct {
	// Name of the cluster: {sequence_id}_cluster_{n}
	Name string

	// SeqID is the id of the source sequence
	SeqID string

	// Genes in the cluster, sorted by coordinate
	Genes []*Gene

	// Types assigned by the kNN classifier. More than one entry means
	// the neighbor vote was tied between types
	Types []string

	// TypeProbability is the fraction of neighbors supporting Types
	TypeProbability float64

	// cached composition vector (see DomainComposition)
	composition      []float64
	compositionVocab string
}

// Start returns the leftmost gene coordinate of the cluster.
func (c *Cluster) Start() int {
	start := 0
	for i, g := range c.Genes {
		if i == 0 || g.Start < start {
			start = g.Start
		}
	}
	return start
}

// End returns the rightmost gene coordinate of the cluster.
func (c *Cluster) End() int {
	end := 0
	for _, g := range c.Genes {
		if g.End > end {
			end = g.End
		}
	}
	return end
}

// Proteins returns the cluster's proteins in gene order.
func (c *Cluster) Proteins() []*Protein {
	prots := make([]*Protein, 0, len(c.Genes))
	for _, g := range c.Genes {
		if g.Protein != nil {
			prots = append(prots, g.Protein)
		}
	}
	return prots
}

// ProteinIDs returns the set of protein ids in the cluster.
func (c *Cluster) ProteinIDs() map[string]bool {
	ids := make(map[string]bool, len(c.Genes))
	for _, p := range c.Proteins() {
		ids[p.ID] = true
	}
	return ids
}

// MaxProbability returns the highest cluster-membership probability among
// the cluster's domains, or 0 when none is attached.
func (c *Cluster) MaxProbability() float64 {
	max := 0.0
	for _, p := range c.Proteins() {
		for _, d := range p.Domains {
			if d.Probability != nil && *d.Probability > max {
				max = *d.Probability
			}
		}
	}
	return max
}

// AverageProbability returns the mean cluster-membership probability over
// the cluster's domains, or 0 when none is attached.
func (c *Cluster) AverageProbability() float64 {
	sum, n := 0.0, 0
	for _, p := range c.Proteins() {
		for _, d := range p.Domains {
			if d.Probability != nil {
				sum += *d.Probability
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// DomainNames returns every domain accession in the cluster, in gene order.
func (c *Cluster) DomainNames() []string {
	var names []string
	for _, p := range c.Proteins() {
		for _, d := range p.Domains {
			names = append(names, d.Name)
		}
	}
	return names
}

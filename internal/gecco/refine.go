package gecco

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/souragc/GECCO/logger"
)

// Criterion selects how segments are extracted and validated.
type Criterion string

const (
	// CriterionGecco treats every above-threshold segment as a cluster.
	CriterionGecco Criterion = "gecco"

	// CriterionAntismash widens the scan with a fixed 0.3 lower bound and
	// validates every candidate afterwards, the way ClusterFinder hits
	// are refined in antiSMASH.
	CriterionAntismash Criterion = "antismash"

	// antismashLowerThreshold is fixed regardless of the nominal threshold.
	antismashLowerThreshold = 0.3
)

// ParseCriterion validates an extraction criterion name.
func ParseCriterion(s string) (Criterion, error) {
	switch Criterion(s) {
	case CriterionGecco, CriterionAntismash:
		return Criterion(s), nil
	}
	return "", configErrorf("unknown extraction criterion %q", s)
}

// Segment is a maximal contiguous run of rows whose cluster probability
// stays at or above the lower threshold. Segments only live between the
// probability scan and cluster construction.
type Segment struct {
	// Name of the cluster the segment will become
	Name string

	// Rows of the segment, still in genomic order
	Rows []FeatureRow
}

// ClusterRefiner scans per-protein probability traces for contiguous
// high-probability segments and materializes the valid ones as clusters.
type ClusterRefiner struct {
	// Threshold is the nominal cluster probability threshold
	Threshold float64

	// MinProteins a sequence needs before segmentation is reliable; also
	// the minimum protein count of a valid antismash candidate
	MinProteins int

	// MinBioDomains is the minimum number of biosynthetic-signal domains
	// of a valid antismash candidate
	MinBioDomains int

	// BioPfams is the set of accessions counted as biosynthetic signals
	BioPfams map[string]bool
}

// NewClusterRefiner returns a refiner with the given probability threshold
// and the default validity requirements.
func NewClusterRefiner(threshold float64) *ClusterRefiner {
	return &ClusterRefiner{
		Threshold:     threshold,
		MinProteins:   5,
		MinBioDomains: 5,
	}
}

// lowerThreshold is the segment opening bound for a criterion.
func (r *ClusterRefiner) lowerThreshold(criterion Criterion) float64 {
	if criterion == CriterionAntismash {
		return antismashLowerThreshold
	}
	return r.Threshold
}

// FindClusters extracts clusters from the coordinate-sorted rows of one
// source sequence. Sequences with fewer than MinProteins distinct proteins
// are skipped entirely with a warning: below that size any segment is
// statistically unreliable. Under the antismash criterion, candidates that
// fail validation are dropped silently but still consume their ordinal, so
// cluster ids may have gaps.
func (r *ClusterRefiner) FindClusters(rows []FeatureRow, criterion Criterion) ([]*Cluster, error) {
	if _, err := ParseCriterion(string(criterion)); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if n := countProteins(rows); n < r.MinProteins {
		logger.Warn("skipping sequence with too few proteins to segment",
			zap.String("sequence", rows[0].SeqID),
			zap.Int("proteins", n),
			zap.Int("min", r.MinProteins),
		)
		return nil, nil
	}

	segments := r.ExtractSegments(rows, r.lowerThreshold(criterion))

	var clusters []*Cluster
	for _, seg := range segments {
		cluster := r.extractCluster(seg)
		if criterion == CriterionAntismash && !r.isValid(cluster) {
			continue
		}
		clusters = append(clusters, cluster)
	}
	return clusters, nil
}

// ExtractSegments runs a single linear scan over the rows, opening a
// segment when the probability reaches lower, extending it while the
// probability holds, and closing it on the first drop. The end of the
// stream force-closes an open segment. Segment names are ordinal per
// sequence: {sequence_id}_cluster_{n}, n starting at 1.
func (r *ClusterRefiner) ExtractSegments(rows []FeatureRow, lower float64) []Segment {
	var segments []Segment
	var open *Segment
	ordinal := 1

	for i := range rows {
		row := rows[i]
		if row.Probability >= lower {
			if open == nil {
				// outside -> inside
				open = &Segment{
					Name: fmt.Sprintf("%s_cluster_%d", row.SeqID, ordinal),
				}
			}
			// inside -> inside
			open.Rows = append(open.Rows, row)
		} else if open != nil {
			// inside -> outside
			segments = append(segments, *open)
			ordinal++
			open = nil
		}
	}

	if open != nil {
		segments = append(segments, *open)
	}
	return segments
}

// extractCluster materializes a segment into a cluster, collecting each
// protein of the segment in first-seen order with its domains and scores
// unmodified.
func (r *ClusterRefiner) extractCluster(seg Segment) *Cluster {
	cluster := &Cluster{
		Name:  seg.Name,
		SeqID: seg.Rows[0].SeqID,
	}

	genes := map[string]*Gene{}
	for _, row := range seg.Rows {
		gene, ok := genes[row.ProteinID]
		if !ok {
			gene = &Gene{
				ID:      row.ProteinID,
				SeqID:   row.SeqID,
				Start:   row.Start,
				End:     row.End,
				Strand:  row.Strand,
				Protein: &Protein{ID: row.ProteinID},
			}
			genes[row.ProteinID] = gene
			cluster.Genes = append(cluster.Genes, gene)
		}
		if row.Start < gene.Start {
			gene.Start = row.Start
		}
		if row.End > gene.End {
			gene.End = row.End
		}

		p := row.Probability
		gene.Protein.Domains = append(gene.Protein.Domains, Domain{
			Name:        row.Domain,
			Start:       row.DomainStart,
			End:         row.DomainEnd,
			HMM:         row.HMM,
			IEvalue:     row.IEvalue,
			PValue:      row.PValue,
			Probability: &p,
		})
	}

	return cluster
}

// isValid applies the antismash cluster-quality criteria.
func (r *ClusterRefiner) isValid(cluster *Cluster) bool {
	if len(cluster.Genes) < r.MinProteins {
		return false
	}

	bio := 0
	for _, name := range cluster.DomainNames() {
		if r.BioPfams[name] {
			bio++
		}
	}
	return bio >= r.MinBioDomains
}

// countProteins returns the number of distinct protein ids in the rows.
func countProteins(rows []FeatureRow) int {
	seen := map[string]bool{}
	for i := range rows {
		seen[rows[i].ProteinID] = true
	}
	return len(seen)
}

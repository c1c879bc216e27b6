package gecco

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteClusterTable writes one tab-separated row per predicted cluster:
// coordinates, probabilities, assigned types and their confidence, plus
// the member proteins and domains.
func WriteClusterTable(w io.Writer, clusters []*Cluster) error {
	header := []string{
		"sequence_id", "cluster_id", "start", "end",
		"average_p", "max_p", "BGC_type", "BGC_type_p",
		"proteins", "domains",
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, c := range clusters {
		proteins := make([]string, 0, len(c.Genes))
		for _, p := range c.Proteins() {
			proteins = append(proteins, p.ID)
		}

		fields := []string{
			c.SeqID,
			c.Name,
			strconv.Itoa(c.Start()),
			strconv.Itoa(c.End()),
			strconv.FormatFloat(c.AverageProbability(), 'f', 4, 64),
			strconv.FormatFloat(c.MaxProbability(), 'f', 4, 64),
			TypePrediction{Types: c.Types}.Type(),
			strconv.FormatFloat(c.TypeProbability, 'f', 4, 64),
			strings.Join(proteins, ";"),
			strings.Join(c.DomainNames(), ";"),
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// ClusterProteins selects the FASTA records belonging to the cluster and
// injects the cluster id into each record description.
func ClusterProteins(c *Cluster, records []FastaRecord) []FastaRecord {
	ids := c.ProteinIDs()

	var out []FastaRecord
	for _, r := range records {
		if !ids[r.ID] {
			continue
		}
		desc := c.Name
		if r.Desc != "" {
			desc = c.Name + " # " + r.Desc
		}
		out = append(out, FastaRecord{ID: r.ID, Desc: desc, Seq: r.Seq})
	}
	return out
}

// WriteFoldResults writes cross-validation predictions as one feature
// table with the probability and round id appended to every row.
func WriteFoldResults(w io.Writer, results []FoldResult) error {
	header := []string{
		colSeqID, colProteinID, colStart, colEnd, colStrand, colDomain,
		colDomainStart, colDomainEnd, colHMM, colIEvalue, colRevIEvalue,
		colProbability, colLabel, colType, "cv_round",
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, result := range results {
		for _, sample := range result.Samples {
			for _, row := range sample {
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
					strconv.FormatFloat(row.Probability, 'g', -1, 64),
					row.Label,
					row.Type,
					result.ID,
				}
				if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// WriteWeightTables writes the learned transition and state weights as
// two tab-separated tables.
func WriteWeightTables(transitions io.Writer, states io.Writer, trans []TransitionWeight, state []StateWeight) error {
	if _, err := fmt.Fprintln(transitions, "from\tto\tweight"); err != nil {
		return err
	}
	for _, t := range trans {
		if _, err := fmt.Fprintf(transitions, "%s\t%s\t%g\n", t.From, t.To, t.Weight); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(states, "attr\tlabel\tweight"); err != nil {
		return err
	}
	for _, s := range state {
		if _, err := fmt.Fprintf(states, "%s\t%s\t%g\n", s.Attribute, s.Label, s.Weight); err != nil {
			return err
		}
	}
	return nil
}

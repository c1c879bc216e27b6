package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/souragc/GECCO/internal/gecco"
)

// runCmd is for the full workflow: annotation, prediction, extraction and typing.
var runCmd = &cobra.Command{
	Use:                        "run",
	Run:                        gecco.RunCmd,
	Short:                      "Predict gene clusters in a genome or protein set",
	SuggestionsMinimumDistance: 2,
	Long: `
Run the whole cluster detection workflow on one input: call genes when the
input is a genome, annotate every protein against the configured HMM
libraries, predict per-protein cluster probabilities with the trained model,
extract contiguous high-probability segments as clusters and assign each one
a product type by nearest-neighbor vote against the reference library.

Writes {input}.features.tsv, {input}.clusters.tsv and one protein FASTA per
cluster into the output directory.`,
}

// set flags
func init() {
	runCmd.Flags().StringP("genome", "g", "", "input genome <FASTA>")
	runCmd.Flags().StringP("proteins", "p", "", "input proteins in genomic order <FASTA>")
	runCmd.Flags().StringP("input", "i", "", "input precomputed feature table <TSV>")
	runCmd.Flags().StringP("model-dir", "m", "", "directory with the trained model and its checksum")
	runCmd.Flags().StringSliceP("hmm-libraries", "l", nil, "comma-separated paths of HMM library files")
	runCmd.Flags().Float64P("e-filter", "e", 1e-5, "e-value cutoff for domains in the feature table")
	runCmd.Flags().StringP("cache", "c", "", "path of a bolt file caching hmmsearch results")
	runCmd.Flags().Float64P("threshold", "t", 0, "cluster probability threshold (criterion default when 0)")
	runCmd.Flags().String("postproc", "gecco", "extraction criterion: gecco or antismash")
	runCmd.Flags().String("feature-type", "group", "feature extraction: single, overlap or group")
	runCmd.Flags().Int("overlap", 2, "window radius for overlap extraction")
	runCmd.Flags().IntP("neighbors", "k", 5, "number of neighbors for type classification")
	runCmd.Flags().String("distance", "jensenshannon", "composition distance: jensenshannon or tanimoto")
	runCmd.Flags().String("composition", "", "reference domain composition matrix <TSV>")
	runCmd.Flags().String("type-labels", "", "reference cluster type table <TSV>")

	viper.BindPFlag("model-dir", runCmd.Flags().Lookup("model-dir"))
	viper.BindPFlag("hmm-libraries", runCmd.Flags().Lookup("hmm-libraries"))
	viper.BindPFlag("e-filter", runCmd.Flags().Lookup("e-filter"))
	viper.BindPFlag("cache", runCmd.Flags().Lookup("cache"))
	viper.BindPFlag("threshold", runCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("postproc", runCmd.Flags().Lookup("postproc"))
	viper.BindPFlag("feature-type", runCmd.Flags().Lookup("feature-type"))
	viper.BindPFlag("overlap", runCmd.Flags().Lookup("overlap"))
	viper.BindPFlag("neighbors", runCmd.Flags().Lookup("neighbors"))
	viper.BindPFlag("distance", runCmd.Flags().Lookup("distance"))
	viper.BindPFlag("composition", runCmd.Flags().Lookup("composition"))
	viper.BindPFlag("type-labels", runCmd.Flags().Lookup("type-labels"))

	rootCmd.AddCommand(runCmd)
}

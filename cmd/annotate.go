package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/souragc/GECCO/internal/gecco"
)

// annotateCmd is for producing the feature table without a prediction pass.
var annotateCmd = &cobra.Command{
	Use:                        "annotate",
	Run:                        gecco.AnnotateCmd,
	Short:                      "Annotate the proteins of a genome with domains",
	SuggestionsMinimumDistance: 3,
	Long: `
Call genes when the input is a genome, search every protein against the
configured HMM libraries and write the surviving domain hits to
{input}.features.tsv in genomic order. The table is the input format of
the train and cv commands once labeled.`,
}

// set flags
func init() {
	annotateCmd.Flags().StringP("genome", "g", "", "input genome <FASTA>")
	annotateCmd.Flags().StringP("proteins", "p", "", "input proteins in genomic order <FASTA>")
	annotateCmd.Flags().StringSliceP("hmm-libraries", "l", nil, "comma-separated paths of HMM library files")
	annotateCmd.Flags().Float64P("e-filter", "e", 1e-5, "e-value cutoff for domains in the feature table")
	annotateCmd.Flags().StringP("cache", "c", "", "path of a bolt file caching hmmsearch results")

	viper.BindPFlag("hmm-libraries", annotateCmd.Flags().Lookup("hmm-libraries"))
	viper.BindPFlag("e-filter", annotateCmd.Flags().Lookup("e-filter"))
	viper.BindPFlag("cache", annotateCmd.Flags().Lookup("cache"))

	rootCmd.AddCommand(annotateCmd)
}

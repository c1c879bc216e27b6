package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/souragc/GECCO/internal/gecco"
)

// cvCmd is for cross-validating model settings on a labeled feature table.
var cvCmd = &cobra.Command{
	Use:                        "cv",
	Run:                        gecco.CvCmd,
	Short:                      "Cross-validate model settings on a labeled feature table",
	SuggestionsMinimumDistance: 2,
	Long: `
Rerun fit+predict over fold splits of a labeled feature table and write
every held-out prediction to {input}.cv.tsv. Folds are contiguous splits
over the input sequences, or one round per product type with --loto.`,
}

// set flags
func init() {
	cvCmd.Flags().StringP("input", "i", "", "labeled feature table <TSV>")
	cvCmd.Flags().IntP("folds", "k", 10, "number of cross-validation folds")
	cvCmd.Flags().Bool("loto", false, "leave-one-type-out instead of k-fold")
	cvCmd.Flags().String("feature-type", "group", "feature extraction: single, overlap or group")
	cvCmd.Flags().Int("overlap", 2, "window radius for overlap extraction")
	cvCmd.Flags().Float64("c1", 0.15, "L1 regularization weight")
	cvCmd.Flags().Float64("c2", 0.15, "L2 regularization weight")

	cvCmd.MarkFlagRequired("input")

	viper.BindPFlag("feature-type", cvCmd.Flags().Lookup("feature-type"))
	viper.BindPFlag("overlap", cvCmd.Flags().Lookup("overlap"))
	viper.BindPFlag("c1", cvCmd.Flags().Lookup("c1"))
	viper.BindPFlag("c2", cvCmd.Flags().Lookup("c2"))

	rootCmd.AddCommand(cvCmd)
}

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/souragc/GECCO/internal/gecco"
)

// trainCmd is for fitting a new model on a labeled feature table.
var trainCmd = &cobra.Command{
	Use:                        "train",
	Run:                        gecco.TrainCmd,
	Short:                      "Fit the prediction model on a labeled feature table",
	SuggestionsMinimumDistance: 2,
	Long: `
Fit the conditional random field on a labeled feature table and write the
model, its checksum and the learned transition and state weight tables into
the model directory.`,
}

// set flags
func init() {
	trainCmd.Flags().StringP("input", "i", "", "labeled feature table <TSV>")
	trainCmd.Flags().StringP("model-dir", "m", "", "output directory for the trained model")
	trainCmd.Flags().String("feature-type", "group", "feature extraction: single, overlap or group")
	trainCmd.Flags().Int("overlap", 2, "window radius for overlap extraction")
	trainCmd.Flags().Float64("c1", 0.15, "L1 regularization weight")
	trainCmd.Flags().Float64("c2", 0.15, "L2 regularization weight")

	trainCmd.MarkFlagRequired("input")
	trainCmd.MarkFlagRequired("model-dir")

	viper.BindPFlag("model-dir", trainCmd.Flags().Lookup("model-dir"))
	viper.BindPFlag("feature-type", trainCmd.Flags().Lookup("feature-type"))
	viper.BindPFlag("overlap", trainCmd.Flags().Lookup("overlap"))
	viper.BindPFlag("c1", trainCmd.Flags().Lookup("c1"))
	viper.BindPFlag("c2", trainCmd.Flags().Lookup("c2"))

	rootCmd.AddCommand(trainCmd)
}

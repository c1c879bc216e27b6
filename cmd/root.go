// Package cmd is for command line interactions with the gecco application
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/souragc/GECCO/logger"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "gecco",
	Short: `Detect biosynthetic gene clusters in genomes and protein sets.
Gene calling, Pfam annotation, CRF probability prediction and kNN typing`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
	logger.Sync()
}

// set global flags
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("settings", "s", "", "path to a settings yaml overriding the defaults")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output")
	rootCmd.PersistentFlags().IntP("jobs", "j", 0, "number of parallel jobs (0 means all CPUs)")
	rootCmd.PersistentFlags().StringP("output-dir", "o", ".", "directory for all result files")

	viper.BindPFlag("settings", rootCmd.PersistentFlags().Lookup("settings"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("jobs", rootCmd.PersistentFlags().Lookup("jobs"))
	viper.BindPFlag("output-dir", rootCmd.PersistentFlags().Lookup("output-dir"))
}

// initConfig reads the optional settings file into viper and starts the
// logger before any command runs.
func initConfig() {
	if settings := viper.GetString("settings"); settings != "" {
		viper.SetConfigFile(settings)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("failed to read settings file: %v", err)
		}
	}

	level := zapcore.InfoLevel
	if viper.GetBool("verbose") {
		level = zapcore.DebugLevel
	}
	if err := logger.Init(level); err != nil {
		log.Fatalf("failed to start logger: %v", err)
	}
}

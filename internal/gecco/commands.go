package gecco

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/souragc/GECCO/logger"
)

// RunCmd takes a cobra command (with its flags) and runs the full
// detection workflow.
func RunCmd(cmd *cobra.Command, args []string) {
	fs, conf, err := ParseFlags(cmd)
	if err != nil {
		logger.Fatal("invalid invocation", zap.Error(err))
	}

	start := time.Now()
	clusters, err := NewPipeline(fs, conf).Run(context.Background())
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	logger.Info("run finished",
		zap.Int("clusters", len(clusters)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// AnnotateCmd produces a feature table from the input without predicting
// cluster probabilities.
func AnnotateCmd(cmd *cobra.Command, args []string) {
	fs, conf, err := ParseFlags(cmd)
	if err != nil {
		logger.Fatal("invalid invocation", zap.Error(err))
	}

	start := time.Now()
	table, err := NewPipeline(fs, conf).Annotate(context.Background())
	if err != nil {
		logger.Fatal("annotation failed", zap.Error(err))
	}

	logger.Info("annotation finished",
		zap.Int("domains", len(table.Rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// TrainCmd fits a new model on a labeled feature table.
func TrainCmd(cmd *cobra.Command, args []string) {
	fs, conf, err := ParseFlags(cmd)
	if err != nil {
		logger.Fatal("invalid invocation", zap.Error(err))
	}

	start := time.Now()
	if err := NewPipeline(fs, conf).Train(context.Background()); err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	logger.Info("training finished", zap.Duration("elapsed", time.Since(start)))
}

// CvCmd cross-validates model settings on a labeled feature table.
func CvCmd(cmd *cobra.Command, args []string) {
	fs, conf, err := ParseFlags(cmd)
	if err != nil {
		logger.Fatal("invalid invocation", zap.Error(err))
	}

	folds, _ := cmd.Flags().GetInt("folds")
	loto, _ := cmd.Flags().GetBool("loto")

	start := time.Now()
	if err := NewPipeline(fs, conf).CrossValidate(context.Background(), folds, loto); err != nil {
		logger.Fatal("cross-validation failed", zap.Error(err))
	}

	logger.Info("cross-validation finished", zap.Duration("elapsed", time.Since(start)))
}

package gecco

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/souragc/GECCO/config"
)

// Flags contains parsed cobra flags like "genome", "proteins" and "input"
// that are used by multiple commands.
type Flags struct {
	// Genome is the path of a genome FASTA file to run gene calling on
	Genome string

	// Proteins is the path of a protein FASTA file used as ordered ORFs
	Proteins string

	// Table is the path of a precomputed feature table
	Table string
}

// inputParser contains methods for parsing flags from the input &cobra.Command.
type inputParser struct{}

// ParseFlags gathers the input paths from a cobra command and returns
// them with a Config built from viper settings. Exactly one input source
// must exist on disk; anything else rejects the invocation before any
// data is processed.
func ParseFlags(cmd *cobra.Command) (*Flags, *config.Config, error) {
	p := inputParser{}
	fs := &Flags{}
	conf := config.New()

	fs.Genome, _ = cmd.Flags().GetString("genome")
	fs.Proteins, _ = cmd.Flags().GetString("proteins")
	fs.Table, _ = cmd.Flags().GetString("input")

	if err := p.checkInputs(fs); err != nil {
		return nil, nil, err
	}
	if conf.Annotation.EvalueFilter < 0 || conf.Annotation.EvalueFilter > 1 {
		return nil, nil, configErrorf("e-value filter must be within [0, 1], got %g",
			conf.Annotation.EvalueFilter)
	}
	return fs, conf, nil
}

func (p inputParser) checkInputs(fs *Flags) error {
	var paths []string
	for _, path := range []string{fs.Genome, fs.Proteins, fs.Table} {
		if path != "" {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return configErrorf("no input file given")
	}
	if len(paths) > 1 {
		return configErrorf("more than one input file given: %s", strings.Join(paths, ", "))
	}
	if _, err := os.Stat(paths[0]); err != nil {
		return fmt.Errorf("could not locate input file %q: %w", paths[0], err)
	}
	return nil
}

// Base returns the input's file name without directories or extension,
// used as the prefix of every output file.
func (fs *Flags) Base() string {
	path := fs.Genome
	if path == "" {
		path = fs.Proteins
	}
	if path == "" {
		path = fs.Table
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

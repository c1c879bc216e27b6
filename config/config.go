// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"log"

	"github.com/spf13/viper"
)

// defaultBioPfams are the biosynthetic Pfam accessions used to validate
// candidate clusters under the antismash criterion. Kept as a config
// default so a settings file can swap in another list.
var defaultBioPfams = []string{
	"PF00109", "PF02801", "PF08659", "PF00378", "PF08541", "PF08545",
	"PF02803", "PF00108", "PF02706", "PF03364", "PF08990", "PF00501",
	"PF00668", "PF08415", "PF00975", "PF03061", "PF00432", "PF00494",
	"PF03936", "PF01397", "PF00848", "PF04101", "PF05834", "PF01041",
	"PF00550", "PF00698", "PF00483", "PF00953", "PF01408", "PF02585",
	"PF08242", "PF08241", "PF13489", "PF13649", "PF13847", "PF02353",
	"PF01596", "PF06325", "PF08003", "PF02624",
}

// AnnotationConfig holds settings for the domain annotation step.
type AnnotationConfig struct {
	// paths to the HMM library files to search proteins against
	HMMLibraries []string `mapstructure:"hmm-libraries"`

	// the e-value cutoff for domains to be kept in the feature table
	EvalueFilter float64 `mapstructure:"e-filter"`

	// path of the bolt file caching hmmsearch results between runs.
	// empty disables caching
	CachePath string `mapstructure:"cache"`
}

// ModelConfig holds settings for the CRF sequence labeling model.
type ModelConfig struct {
	// the directory holding the trained model and its checksum
	Dir string `mapstructure:"model-dir"`

	// how features are extracted: single, overlap or group
	FeatureType string `mapstructure:"feature-type"`

	// window radius when FeatureType is overlap
	Overlap int `mapstructure:"overlap"`

	// L1 regularization weight
	C1 float64 `mapstructure:"c1"`

	// L2 regularization weight
	C2 float64 `mapstructure:"c2"`
}

// RefineConfig holds settings for cluster extraction and validation.
type RefineConfig struct {
	// the probability threshold for cluster detection
	Threshold float64 `mapstructure:"threshold"`

	// the extraction criterion, gecco or antismash
	Criterion string `mapstructure:"postproc"`

	// the minimum number of proteins for a sequence to be segmented
	// and for an antismash candidate to be kept
	MinProteins int `mapstructure:"min-proteins"`

	// the minimum number of biosynthetic domains an antismash
	// candidate must contain
	MinBioDomains int `mapstructure:"min-bio-domains"`

	// Pfam accessions counted as biosynthetic signals
	BioPfams []string `mapstructure:"bio-pfams"`
}

// TypingConfig holds settings for kNN type classification.
type TypingConfig struct {
	// the number of neighbors to vote over
	Neighbors int `mapstructure:"neighbors"`

	// the distance metric, jensenshannon or tanimoto
	Metric string `mapstructure:"distance"`

	// path to the reference domain composition matrix
	CompositionPath string `mapstructure:"composition"`

	// path to the reference type label table
	TypeLabelPath string `mapstructure:"type-labels"`
}

// Config is the root-level settings struct and is a mix of settings
// available in settings.yaml and those available from the command line
type Config struct {
	// the number of jobs to fan out over samples and HMM libraries
	Jobs int `mapstructure:"jobs"`

	// the output directory for all result files
	OutputDir string `mapstructure:"output-dir"`

	// domain annotation settings
	Annotation AnnotationConfig `mapstructure:",squash"`

	// CRF model settings
	Model ModelConfig `mapstructure:",squash"`

	// cluster extraction settings
	Refine RefineConfig `mapstructure:",squash"`

	// kNN typing settings
	Typing TypingConfig `mapstructure:",squash"`
}

// BioPfamSet returns the configured biosynthetic accessions as a set.
func (c *Config) BioPfamSet() map[string]bool {
	pfams := c.Refine.BioPfams
	if len(pfams) == 0 {
		pfams = defaultBioPfams
	}

	set := make(map[string]bool, len(pfams))
	for _, p := range pfams {
		set[p] = true
	}
	return set
}

// New returns a new Config struct populated by Viper settings (either
// from the local settings.yaml) and/or command line arguments
func New() *Config {
	setDefaults()

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		log.Fatalf("unable to decode settings into struct: %v", err)
	}
	return c
}

func setDefaults() {
	viper.SetDefault("jobs", 0)
	viper.SetDefault("output-dir", ".")
	viper.SetDefault("e-filter", 1e-5)
	viper.SetDefault("feature-type", "group")
	viper.SetDefault("overlap", 2)
	viper.SetDefault("c1", 0.15)
	viper.SetDefault("c2", 0.15)
	viper.SetDefault("postproc", "gecco")
	viper.SetDefault("min-proteins", 5)
	viper.SetDefault("min-bio-domains", 5)
	viper.SetDefault("neighbors", 5)
	viper.SetDefault("distance", "jensenshannon")
}

package gecco

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/souragc/GECCO/config"
	"github.com/souragc/GECCO/logger"
)

// default extraction columns: the domain accession is the feature and the
// reversed e-value is its local weight
var (
	defaultFeatureColumns = []string{colDomain}
	defaultWeightColumns  = []string{colRevIEvalue}
)

// default detection thresholds per criterion, applied when no explicit
// threshold was configured
const (
	defaultGeccoThreshold     = 0.4
	defaultAntismashThreshold = 0.6
)

// modelFile is the name of the trained model blob inside the model dir.
const modelFile = "model.crf"

// Pipeline executes the detection workflow end to end: gene calling,
// domain annotation, probability prediction, cluster extraction and type
// classification. Each command maps to one of its exported methods.
type Pipeline struct {
	flags *Flags
	conf  *config.Config
}

// NewPipeline returns a pipeline over parsed flags and settings.
func NewPipeline(fs *Flags, conf *config.Config) *Pipeline {
	return &Pipeline{flags: fs, conf: conf}
}

// Annotate produces the feature table of the input: genes are called
// when the input is a genome, every protein is searched against the
// configured HMM libraries in parallel, and the surviving domain hits
// are written to {base}.features.tsv in genomic order.
func (p *Pipeline) Annotate(ctx context.Context) (*FeatureTable, error) {
	table, _, err := p.annotate(ctx)
	if err != nil {
		return nil, err
	}
	return table, p.writeTable(table, p.flags.Base()+".features.tsv")
}

// Run executes the full workflow: annotation, cluster probability
// prediction, segment extraction and kNN type classification. It writes
// the predicted feature table, the cluster table and one protein FASTA
// per detected cluster into the output directory.
func (p *Pipeline) Run(ctx context.Context) ([]*Cluster, error) {
	table, proteins, err := p.annotate(ctx)
	if err != nil {
		return nil, err
	}

	modelPath := filepath.Join(p.conf.Model.Dir, modelFile)
	if err := VerifyChecksum(modelPath); err != nil {
		return nil, err
	}

	labeler, err := p.newLabeler(modelPath)
	if err != nil {
		return nil, err
	}

	samples := table.SplitBySequence()
	probs, err := labeler.PredictProbabilities(ctx, samples)
	if err != nil {
		return nil, err
	}
	AttachProbabilities(samples, probs)

	table.Rows = table.Rows[:0]
	for _, sample := range samples {
		table.Rows = append(table.Rows, sample...)
	}
	table.HasProbability = true
	if err := p.writeTable(table, p.flags.Base()+".features.tsv"); err != nil {
		return nil, err
	}

	criterion, err := ParseCriterion(p.conf.Refine.Criterion)
	if err != nil {
		return nil, err
	}

	refiner := NewClusterRefiner(p.threshold(criterion))
	refiner.MinProteins = p.conf.Refine.MinProteins
	refiner.MinBioDomains = p.conf.Refine.MinBioDomains
	refiner.BioPfams = p.conf.BioPfamSet()

	var clusters []*Cluster
	for _, sample := range samples {
		found, err := refiner.FindClusters(sample, criterion)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, found...)
	}
	logger.Info("extracted clusters",
		zap.Int("count", len(clusters)),
		zap.String("criterion", string(criterion)),
	)

	if err := p.classifyTypes(clusters); err != nil {
		return nil, err
	}
	return clusters, p.writeClusters(clusters, proteins)
}

// Train fits the CRF on a labeled feature table, writes the model and
// its checksum into the model directory, and dumps the learned
// transition and state weights next to it for inspection.
func (p *Pipeline) Train(ctx context.Context) error {
	table, err := p.loadLabeledTable()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.conf.Model.Dir, 0755); err != nil {
		return err
	}
	modelPath := filepath.Join(p.conf.Model.Dir, modelFile)

	labeler, err := p.newLabeler(modelPath)
	if err != nil {
		return err
	}

	samples := table.SplitBySequence()
	logger.Info("fitting the model",
		zap.Int("samples", len(samples)),
		zap.Float64("c1", p.conf.Model.C1),
		zap.Float64("c2", p.conf.Model.C2),
	)
	if err := labeler.Fit(ctx, samples); err != nil {
		return err
	}
	if err := WriteChecksum(modelPath); err != nil {
		return err
	}

	return p.dumpWeights(ctx, modelPath)
}

// CrossValidate reruns fit+predict over fold splits of a labeled table
// and writes every held-out prediction to {base}.cv.tsv. Folds are
// contiguous k-fold splits, or leave-one-type-out when loto is set.
func (p *Pipeline) CrossValidate(ctx context.Context, folds int, loto bool) error {
	table, err := p.loadLabeledTable()
	if err != nil {
		return err
	}
	samples := table.SplitBySequence()

	scratch, err := os.MkdirTemp("", "gecco-cv-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	cv := &CrossValidator{
		NewLabeler: func(round string) (*SequenceLabeler, error) {
			return p.newLabeler(filepath.Join(scratch, round+".crf"))
		},
	}

	var results []FoldResult
	if loto {
		results, err = cv.LOTO(ctx, samples)
	} else {
		results, err = cv.KFold(ctx, samples, folds)
	}
	if err != nil {
		return err
	}

	out, err := os.Create(filepath.Join(p.conf.OutputDir, p.flags.Base()+".cv.tsv"))
	if err != nil {
		return err
	}
	defer out.Close()
	if err := WriteFoldResults(out, results); err != nil {
		return err
	}

	mean, stddev, err := FoldSummary(results)
	if err != nil {
		return err
	}
	logger.Info("cross-validation finished",
		zap.Int("rounds", len(results)),
		zap.Float64("mean_cluster_probability", mean),
		zap.Float64("stddev", stddev),
	)
	return nil
}

// annotate builds the sorted, filtered feature table from whichever
// input was given, plus the protein records needed for cluster FASTA
// output. A precomputed table input skips gene calling and hmmsearch.
func (p *Pipeline) annotate(ctx context.Context) (*FeatureTable, []FastaRecord, error) {
	if p.flags.Table != "" {
		f, err := os.Open(p.flags.Table)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()

		table, err := LoadFeatureTable(f)
		if err != nil {
			return nil, nil, err
		}
		table.Sort()
		return table, nil, nil
	}

	genes, err := p.findGenes(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("found genes", zap.Int("count", len(genes)))

	if err := p.annotateDomains(ctx, genes); err != nil {
		return nil, nil, err
	}

	table := &FeatureTable{Rows: RowsFromGenes(genes)}
	table.Sort()
	table.FilterEvalue(p.conf.Annotation.EvalueFilter)
	table.RelabelAccessions()
	logger.Info("annotated domains",
		zap.Int("count", len(table.Rows)),
		zap.Float64("e_filter", p.conf.Annotation.EvalueFilter),
	)

	proteins := make([]FastaRecord, 0, len(genes))
	for _, gene := range genes {
		if gene.Protein == nil {
			continue
		}
		proteins = append(proteins, FastaRecord{ID: gene.Protein.ID, Seq: gene.Protein.Seq})
	}
	return table, proteins, nil
}

// findGenes resolves the gene list from the genome or protein input.
func (p *Pipeline) findGenes(ctx context.Context) ([]*Gene, error) {
	if p.flags.Genome != "" {
		finder := &Prodigal{
			OutDir:     p.conf.OutputDir,
			Metagenome: true,
		}
		return finder.FindGenes(ctx, p.flags.Genome)
	}

	records, err := ReadFASTA(p.flags.Proteins)
	if err != nil {
		return nil, err
	}
	return ProteinsAsGenes(p.flags.Base(), records), nil
}

// annotateDomains searches the proteins against every configured HMM
// library. Searches fan out in parallel since they never touch the
// genes; hits are attached serially afterwards.
func (p *Pipeline) annotateDomains(ctx context.Context, genes []*Gene) error {
	if len(p.conf.Annotation.HMMLibraries) == 0 {
		return configErrorf("no HMM libraries configured")
	}

	var cache *AnnotationCache
	if p.conf.Annotation.CachePath != "" {
		var err error
		if cache, err = OpenAnnotationCache(p.conf.Annotation.CachePath); err != nil {
			return err
		}
		defer cache.Close()
	}

	searches := make([]*HMMSearch, len(p.conf.Annotation.HMMLibraries))
	for i, path := range p.conf.Annotation.HMMLibraries {
		searches[i] = &HMMSearch{
			HMM:   HMM{ID: libraryID(path), Path: path},
			Cache: cache,
		}
	}

	hits, err := mapOrdered(p.conf.Jobs, searches, func(s *HMMSearch) ([]DomainHit, error) {
		return s.Search(ctx, genes)
	})
	if err != nil {
		return err
	}

	byProtein, err := indexByProtein(genes)
	if err != nil {
		return err
	}
	for _, libHits := range hits {
		attachHits(byProtein, libHits)
	}
	return nil
}

// classifyTypes assigns product types to clusters by kNN vote against
// the reference library. Without a configured library the clusters stay
// untyped, with a warning.
func (p *Pipeline) classifyTypes(clusters []*Cluster) error {
	if len(clusters) == 0 {
		return nil
	}
	if p.conf.Typing.CompositionPath == "" || p.conf.Typing.TypeLabelPath == "" {
		logger.Warn("no reference library configured; clusters are left untyped")
		return nil
	}

	lib, err := LoadReferenceLibrary(p.conf.Typing.CompositionPath, p.conf.Typing.TypeLabelPath)
	if err != nil {
		return err
	}

	metric, err := ParseDistanceMetric(p.conf.Typing.Metric)
	if err != nil {
		return err
	}

	query := make([][]float64, len(clusters))
	for i, cluster := range clusters {
		query[i] = cluster.DomainComposition(lib.Vocabulary)
	}

	classifier := NewTypeClassifier(metric, p.conf.Typing.Neighbors)
	predictions, err := classifier.FitPredict(lib.Compositions, query, lib.Types)
	if err != nil {
		return err
	}

	for i, pred := range predictions {
		clusters[i].Types = pred.Types
		clusters[i].TypeProbability = pred.Probability
	}
	return nil
}

// writeClusters writes the cluster table and one protein FASTA per
// cluster. Protein records are only available when the run started from
// sequence input, not from a precomputed table.
func (p *Pipeline) writeClusters(clusters []*Cluster, proteins []FastaRecord) error {
	out, err := os.Create(filepath.Join(p.conf.OutputDir, p.flags.Base()+".clusters.tsv"))
	if err != nil {
		return err
	}
	defer out.Close()
	if err := WriteClusterTable(out, clusters); err != nil {
		return err
	}

	if len(proteins) == 0 {
		return nil
	}
	for _, cluster := range clusters {
		records := ClusterProteins(cluster, proteins)
		if len(records) == 0 {
			continue
		}

		f, err := os.Create(filepath.Join(p.conf.OutputDir, cluster.Name+".faa"))
		if err != nil {
			return err
		}
		if err := WriteFASTA(f, records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// dumpWeights writes the learned transition and state weights as two
// tab-separated tables next to the model.
func (p *Pipeline) dumpWeights(ctx context.Context, modelPath string) error {
	crf := NewCRFSuite(modelPath, p.conf.Model.C1, p.conf.Model.C2)
	trans, states, err := crf.DumpWeights(ctx)
	if err != nil {
		return err
	}

	transOut, err := os.Create(filepath.Join(p.conf.Model.Dir, "model.trans.tsv"))
	if err != nil {
		return err
	}
	defer transOut.Close()

	stateOut, err := os.Create(filepath.Join(p.conf.Model.Dir, "model.state.tsv"))
	if err != nil {
		return err
	}
	defer stateOut.Close()

	return WriteWeightTables(transOut, stateOut, trans, states)
}

// newLabeler builds a sequence labeler with the configured extraction
// mode over a crfsuite backend at modelPath.
func (p *Pipeline) newLabeler(modelPath string) (*SequenceLabeler, error) {
	extractor, err := NewFeatureExtractor(
		p.conf.Model.FeatureType,
		colLabel,
		colProteinID,
		defaultFeatureColumns,
		defaultWeightColumns,
		p.conf.Model.Overlap,
	)
	if err != nil {
		return nil, err
	}

	crf := NewCRFSuite(modelPath, p.conf.Model.C1, p.conf.Model.C2)
	return NewSequenceLabeler(extractor, crf), nil
}

// loadLabeledTable loads the precomputed table input and requires the
// label column training and cross-validation depend on.
func (p *Pipeline) loadLabeledTable() (*FeatureTable, error) {
	if p.flags.Table == "" {
		return nil, configErrorf("a labeled feature table input is required")
	}

	f, err := os.Open(p.flags.Table)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := LoadFeatureTable(f)
	if err != nil {
		return nil, err
	}
	if !table.HasLabel {
		return nil, dataErrorf("feature table %q has no label column", p.flags.Table)
	}
	table.Sort()
	return table, nil
}

// threshold resolves the detection threshold, falling back to the
// criterion's default when none was configured.
func (p *Pipeline) threshold(criterion Criterion) float64 {
	if p.conf.Refine.Threshold > 0 {
		return p.conf.Refine.Threshold
	}
	if criterion == CriterionAntismash {
		return defaultAntismashThreshold
	}
	return defaultGeccoThreshold
}

// writeTable writes a feature table into the output directory.
func (p *Pipeline) writeTable(table *FeatureTable, name string) error {
	if err := os.MkdirAll(p.conf.OutputDir, 0755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(p.conf.OutputDir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	return table.Write(f)
}

// libraryID derives a short library id from the .hmm file name, eg
// /data/Pfam-A.hmm.gz becomes Pfam-A.
func libraryID(path string) string {
	name := filepath.Base(path)
	for ext := filepath.Ext(name); ext != ""; ext = filepath.Ext(name) {
		name = name[:len(name)-len(ext)]
	}
	if name == "" {
		return filepath.Base(path)
	}
	return name
}

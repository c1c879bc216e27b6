package gecco

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// CRFSuite is a CRF backend that shells out to the crfsuite binary for
// training and marginal inference. The trained label set is stored in a
// sidecar file next to the model so that marginal distributions can be
// reconstructed from the tagger output.
type CRFSuite struct {
	// ModelPath is where the trained model blob lives
	ModelPath string

	// Algorithm is the crfsuite training algorithm, lbfgs by default
	Algorithm string

	// C1 is the L1 regularization weight
	C1 float64

	// C2 is the L2 regularization weight
	C2 float64

	// labels seen during training, loaded lazily for prediction
	labels []string
}

// NewCRFSuite returns a backend writing its model to modelPath.
func NewCRFSuite(modelPath string, c1, c2 float64) *CRFSuite {
	return &CRFSuite{ModelPath: modelPath, Algorithm: "lbfgs", C1: c1, C2: c2}
}

// labelsPath is the sidecar file recording the training label set.
func (c *CRFSuite) labelsPath() string {
	return c.ModelPath + ".labels"
}

// Fit trains the model on the full batch with the configured L1/L2
// weights. Dense transition and state supports are requested so that
// label transitions unseen in a small training set stay representable.
func (c *CRFSuite) Fit(ctx context.Context, features [][]FeatureDict, labels [][]string) error {
	train, err := os.CreateTemp("", "crfsuite-train-*.txt")
	if err != nil {
		return err
	}
	defer os.Remove(train.Name())

	if err := writeItemSequences(train, features, labels); err != nil {
		return err
	}
	if err := train.Close(); err != nil {
		return err
	}

	algorithm := c.Algorithm
	if algorithm == "" {
		algorithm = "lbfgs"
	}
	learnCmd := exec.CommandContext(
		ctx,
		"crfsuite",
		"learn",
		"-m", c.ModelPath,
		"-a", algorithm,
		"-p", fmt.Sprintf("c1=%g", c.C1),
		"-p", fmt.Sprintf("c2=%g", c.C2),
		"-p", "feature.possible_states=1",
		"-p", "feature.possible_transitions=1",
		train.Name(),
	)
	if output, err := learnCmd.CombinedOutput(); err != nil {
		return &ExternalToolError{Tool: "crfsuite learn", Output: string(output), Err: err}
	}

	c.labels = labelSet(labels)
	return os.WriteFile(c.labelsPath(), []byte(strings.Join(c.labels, "\n")+"\n"), 0644)
}

// Marginals tags each sample and reconstructs a per-position distribution
// from the tagger's marginal output. crfsuite reports the marginal of the
// predicted label only, so reconstruction needs a binary label set; the
// pipeline trains on exactly {"0", "1"}.
func (c *CRFSuite) Marginals(ctx context.Context, features [][]FeatureDict) ([][]Marginal, error) {
	if err := c.loadLabels(); err != nil {
		return nil, err
	}
	if len(c.labels) > 2 {
		return nil, configErrorf(
			"marginal reconstruction requires at most two labels, model has %d", len(c.labels))
	}

	test, err := os.CreateTemp("", "crfsuite-test-*.txt")
	if err != nil {
		return nil, err
	}
	defer os.Remove(test.Name())

	if err := writeItemSequences(test, features, nil); err != nil {
		return nil, err
	}
	if err := test.Close(); err != nil {
		return nil, err
	}

	tagCmd := exec.CommandContext(
		ctx,
		"crfsuite",
		"tag",
		"-m", c.ModelPath,
		"-i",
		test.Name(),
	)
	output, err := tagCmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = string(exitErr.Stderr)
		}
		return nil, &ExternalToolError{Tool: "crfsuite tag", Output: detail, Err: err}
	}

	return c.parseMarginals(string(output), features)
}

// parseMarginals reads "label:probability" lines, one per item, with blank
// lines between sequences, and shapes them back into the input samples.
func (c *CRFSuite) parseMarginals(output string, features [][]FeatureDict) ([][]Marginal, error) {
	marginals := make([][]Marginal, len(features))
	sample, item := 0, 0

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if item > 0 {
				sample++
				item = 0
			}
			continue
		}
		if sample >= len(features) {
			return nil, fmt.Errorf("crfsuite tag produced more sequences than samples")
		}

		cut := strings.LastIndex(line, ":")
		if cut < 0 {
			return nil, fmt.Errorf("unexpected crfsuite tag output line %q", line)
		}
		label := line[:cut]
		prob, err := strconv.ParseFloat(line[cut+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("unexpected crfsuite tag output line %q: %v", line, err)
		}

		m := Marginal{label: prob}
		if other, ok := c.otherLabel(label); ok {
			m[other] = 1 - prob
		}
		marginals[sample] = append(marginals[sample], m)
		item++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for i := range features {
		if len(marginals[i]) != len(features[i]) {
			return nil, fmt.Errorf(
				"crfsuite tag returned %d items for sample %d, expected %d",
				len(marginals[i]), i, len(features[i]))
		}
	}
	return marginals, nil
}

// otherLabel returns the complement label of a binary label set.
func (c *CRFSuite) otherLabel(label string) (string, bool) {
	if len(c.labels) != 2 {
		return "", false
	}
	if c.labels[0] == label {
		return c.labels[1], true
	}
	return c.labels[0], true
}

func (c *CRFSuite) loadLabels() error {
	if c.labels != nil {
		return nil
	}
	raw, err := os.ReadFile(c.labelsPath())
	if err != nil {
		return fmt.Errorf("failed to read model label set: %w", err)
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			c.labels = append(c.labels, line)
		}
	}
	return nil
}

// TransitionWeight is one learned label-to-label transition weight.
type TransitionWeight struct {
	From   string
	To     string
	Weight float64
}

// StateWeight is one learned attribute-to-label emission weight.
type StateWeight struct {
	Attribute string
	Label     string
	Weight    float64
}

// DumpWeights reads the learned transition and state feature weights out
// of the model with `crfsuite dump`.
func (c *CRFSuite) DumpWeights(ctx context.Context) ([]TransitionWeight, []StateWeight, error) {
	dumpCmd := exec.CommandContext(ctx, "crfsuite", "dump", c.ModelPath)
	output, err := dumpCmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = string(exitErr.Stderr)
		}
		return nil, nil, &ExternalToolError{Tool: "crfsuite dump", Output: detail, Err: err}
	}

	var transitions []TransitionWeight
	var states []StateWeight
	section := ""

	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "TRANSITIONS"):
			section = "transitions"
			continue
		case strings.HasPrefix(line, "STATE_FEATURES"):
			section = "states"
			continue
		case line == "}" || line == "":
			continue
		}

		from, to, weight, ok := parseWeightLine(line)
		if !ok {
			continue
		}
		switch section {
		case "transitions":
			transitions = append(transitions, TransitionWeight{From: from, To: to, Weight: weight})
		case "states":
			states = append(states, StateWeight{Attribute: from, Label: to, Weight: weight})
		}
	}

	return transitions, states, scanner.Err()
}

// parseWeightLine reads crfsuite dump lines like "(1) O --> B: 0.773389".
func parseWeightLine(line string) (string, string, float64, bool) {
	if i := strings.Index(line, ") "); i >= 0 {
		line = line[i+2:]
	}
	parts := strings.SplitN(line, " --> ", 2)
	if len(parts) != 2 {
		return "", "", 0, false
	}
	cut := strings.LastIndex(parts[1], ": ")
	if cut < 0 {
		return "", "", 0, false
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(parts[1][cut+2:]), 64)
	if err != nil {
		return "", "", 0, false
	}
	return parts[0], parts[1][:cut], weight, true
}

// writeItemSequences writes samples in the crfsuite data format: one item
// per line as "label<TAB>attr:weight...", a blank line between sequences.
// When labels is nil a placeholder label is written; the tagger ignores it.
func writeItemSequences(f *os.File, features [][]FeatureDict, labels [][]string) error {
	w := bufio.NewWriter(f)
	for i, sample := range features {
		for j, dict := range sample {
			label := "0"
			if labels != nil {
				label = labels[i][j]
			}
			if _, err := w.WriteString(label); err != nil {
				return err
			}

			// stable attribute order keeps training files reproducible
			keys := make([]string, 0, len(dict))
			for k := range dict {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				if _, err := fmt.Fprintf(w, "\t%s:%g", escapeAttribute(k), dict[k]); err != nil {
					return err
				}
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
		if i < len(features)-1 {
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// escapeAttribute protects the separators of the crfsuite data format.
func escapeAttribute(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, ":", `\:`)
}

// labelSet collects the distinct labels of a training batch, sorted.
func labelSet(labels [][]string) []string {
	seen := map[string]bool{}
	for _, sample := range labels {
		for _, l := range sample {
			seen[l] = true
		}
	}
	set := make([]string, 0, len(seen))
	for l := range seen {
		set = append(set, l)
	}
	sort.Strings(set)
	return set
}

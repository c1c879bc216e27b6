package gecco

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DomainComposition returns a vector of len(vocab) counting how often each
// vocabulary domain occurs among the cluster's proteins. Domains absent
// from the vocabulary are ignored: the vocabulary is fixed by the
// reference training set. The result depends only on the multiset of
// (domain, position) pairs, never on iteration order, and is cached until
// called with a different vocabulary.
func (c *Cluster) DomainComposition(vocab []string) []float64 {
	key := strings.Join(vocab, "\x00")
	if c.composition != nil && c.compositionVocab == key {
		return c.composition
	}

	index := make(map[string]int, len(vocab))
	for i, name := range vocab {
		index[name] = i
	}

	comp := make([]float64, len(vocab))
	for _, name := range c.DomainNames() {
		if i, ok := index[name]; ok {
			comp[i]++
		}
	}

	c.composition = comp
	c.compositionVocab = key
	return comp
}

// normalized returns v scaled to sum to one, for use as a distribution.
// An all-zero vector is returned unchanged.
func normalized(v []float64) []float64 {
	sum := floats.Sum(v)
	if sum == 0 {
		return v
	}

	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(1/sum, out)
	return out
}

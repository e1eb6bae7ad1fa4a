// Package graph deduplicates and merges facts that describe the same
// underlying statement observed through overlapping text windows.
package graph

import (
	"sort"
	"strings"

	"github.com/ppiankov/evidentia/internal/model"
)

// Graph merges duplicate facts. Merging unions token sets, source refs and
// article hints; it never rewrites the first-seen narrative text or context.
type Graph struct{}

// New creates a fact graph.
func New() *Graph {
	return &Graph{}
}

// Merge collapses facts sharing the same role and merge key. The output is
// a new collection of clones; input facts are left untouched. Output order
// is the first-seen input order, so identical input ordering reproduces
// identical output. Running Merge on an already-merged set is a no-op.
func (g *Graph) Merge(facts []*model.Fact) []*model.Fact {
	if len(facts) == 0 {
		return []*model.Fact{}
	}

	index := make(map[string]*model.Fact, len(facts))
	out := make([]*model.Fact, 0, len(facts))

	for _, f := range facts {
		// role is part of the identity: the same phrase in two roles is two
		// independent observations
		key := string(f.Role) + "\x1c" + f.MergeKey()

		existing, ok := index[key]
		if !ok {
			c := f.Clone()
			index[key] = c
			out = append(out, c)
			continue
		}
		mergeInto(existing, f)
	}

	return out
}

func mergeInto(dst, src *model.Fact) {
	srcSeen := make(map[string]bool, len(dst.SourceRefs))
	for _, s := range dst.SourceRefs {
		srcSeen[s.Key()] = true
	}
	for _, s := range src.SourceRefs {
		if !srcSeen[s.Key()] {
			srcSeen[s.Key()] = true
			dst.SourceRefs = append(dst.SourceRefs, s)
		}
	}

	tokSeen := make(map[string]bool, len(dst.Tokens))
	for _, t := range dst.Tokens {
		tokSeen[tokenKey(t)] = true
	}
	for _, t := range src.Tokens {
		if !tokSeen[tokenKey(t)] {
			tokSeen[tokenKey(t)] = true
			dst.Tokens = append(dst.Tokens, t)
		}
	}

	if len(src.ArticleHints) > 0 {
		hintSeen := make(map[string]bool, len(dst.ArticleHints))
		for _, h := range dst.ArticleHints {
			hintSeen[h] = true
		}
		for _, h := range src.ArticleHints {
			if !hintSeen[h] {
				hintSeen[h] = true
				dst.ArticleHints = append(dst.ArticleHints, h)
			}
		}
		sort.Strings(dst.ArticleHints)
	}

	// a fact confirmed by more sources keeps its strongest extraction score
	if src.Confidence > dst.Confidence {
		dst.Confidence = src.Confidence
	}
	if src.Critical {
		dst.Critical = true
	}
}

func tokenKey(t model.Token) string {
	return string(t.Type) + "\x1f" + strings.ToLower(t.Value)
}

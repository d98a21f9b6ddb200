// Package taxonomy turns the catalog's knowledge point tree into the flat
// choice list offered to the classifier, plus the index used to map a chosen
// path back to its knowledge point id.
package taxonomy

import (
	"strings"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// Flattened is the result of flattening a taxonomy
type Flattened struct {
	// Choices are leaf paths in depth-first pre-order, duplicates included
	Choices []string

	// Index maps a leaf path to its knowledge point id. Later leaves win.
	Index map[string]string

	// Collisions lists every path that overwrote an earlier index entry, once
	// per overwrite
	Collisions []string
}

// Flatten walks roots depth-first and records every titled leaf.
//
// A node without a title is skipped together with its whole subtree, even
// when descendants are titled leaves. A titled node is walked into whether or
// not it is itself a leaf.
func Flatten(roots []types.TaxonomyNode) *Flattened {
	acc := &Flattened{Index: make(map[string]string)}
	walk(acc, roots, nil)
	return acc
}

func walk(acc *Flattened, nodes []types.TaxonomyNode, ancestors []string) {
	for _, node := range nodes {
		if node.Title == "" {
			continue
		}

		// full slice expression forces a copy so siblings never share a backing array
		path := append(ancestors[:len(ancestors):len(ancestors)], node.Title)

		if node.IsLeaf {
			acc.add(strings.Join(path, types.PathSeparator), node.ID)
		}

		if len(node.Children) > 0 {
			walk(acc, node.Children, path)
		}
	}
}

func (f *Flattened) add(path, id string) {
	f.Choices = append(f.Choices, path)
	if _, exists := f.Index[path]; exists {
		f.Collisions = append(f.Collisions, path)
	}
	f.Index[path] = id
}

// Lookup returns the knowledge point id for a flattened path
func (f *Flattened) Lookup(path string) (string, bool) {
	id, ok := f.Index[path]
	return id, ok
}

// Len returns the number of choices
func (f *Flattened) Len() int {
	return len(f.Choices)
}

// Sample returns at most n leading choices, for display
func (f *Flattened) Sample(n int) []string {
	if n > len(f.Choices) {
		n = len(f.Choices)
	}
	return f.Choices[:n]
}

// Title returns the last segment of a knowledge point path
func Title(path string) string {
	if i := strings.LastIndex(path, types.PathSeparator); i >= 0 {
		return path[i+len(types.PathSeparator):]
	}
	return path
}

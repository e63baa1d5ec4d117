package search

import (
	"github.com/sahilm/fuzzy"
)

// nameSource implements fuzzy.Source over a plain name list.
type nameSource []string

func (source nameSource) String(index int) string { return source[index] }
func (source nameSource) Len() int                { return len(source) }

// FilterIndices ranks names against the pattern and returns their indices in
// match order.
//
// An empty pattern matches everything in original order so callers can treat
// filtering as optional.
func FilterIndices(pattern string, names []string) []int {
	if len(pattern) == 0 {
		matchedIndices := make([]int, len(names))
		for nameIndex := range names {
			matchedIndices[nameIndex] = nameIndex
		}
		return matchedIndices
	}

	matches := fuzzy.FindFrom(pattern, nameSource(names))
	matchedIndices := make([]int, 0, len(matches))
	for _, match := range matches {
		matchedIndices = append(matchedIndices, match.Index)
	}
	return matchedIndices
}

// FilterNames is FilterIndices resolved back to the matching names.
func FilterNames(pattern string, names []string) []string {
	matchedIndices := FilterIndices(pattern, names)
	matchedNames := make([]string, 0, len(matchedIndices))
	for _, matchedIndex := range matchedIndices {
		matchedNames = append(matchedNames, names[matchedIndex])
	}
	return matchedNames
}

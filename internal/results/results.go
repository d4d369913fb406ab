// Package results keeps the ranked results of the last batch per session.
package results

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound is returned when a session has no stored batch.
var ErrNotFound = errors.New("no results for session")

// Result is the scored outcome of one submitted resume.
type Result struct {
	Filename string  `json:"filename" yaml:"filename"`
	Score    float64 `json:"score" yaml:"score"`
	Reason   string  `json:"reason" yaml:"reason"`
	// Index is the submission position inside the batch.
	Index int `json:"index" yaml:"index"`
	// Path locates the stored original file, empty when it was not kept.
	Path string `json:"-" yaml:"-"`
}

// Set is a batch of results ordered by score descending, ties by submission
// order.
type Set []Result

// NewSet copies items and sorts the copy.
func NewSet(items []Result) Set {
	set := make(Set, len(items))
	copy(set, items)
	set.Sort()
	return set
}

// Sort orders the set in place.
func (s Set) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Index < s[j].Index
	})
}

// Top returns at most n leading results.
func (s Set) Top(n int) Set {
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Store keeps one Set per session. Replace discards whatever the session held
// before; there is no merging between batches.
type Store interface {
	Replace(ctx context.Context, session string, set Set) error
	Get(ctx context.Context, session string) (Set, error)
	Close() error
}

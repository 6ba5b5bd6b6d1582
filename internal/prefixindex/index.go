// Package prefixindex implements the in-memory prefix index used for
// search-as-you-type over event names and locations.
//
// The index is a character trie keyed by Unicode code points. Each node that
// terminates an inserted word keeps a small, bounded list of display records.
// Lookups walk the prefix and then collect records breadth-first so that the
// shortest completions surface first.
//
// Index is not safe for concurrent use; wrap it in Shared when it is reached
// from more than one goroutine.
package prefixindex

import (
	"slices"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultMaxRecordsPerNode = 5
	DefaultMaxWordLength     = 50
	DefaultMaxResults        = 10
)

// Record is the display-only projection of a source entity that the index
// keeps per word. Everything else about the entity is dropped.
type Record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Match is a single lookup result: the full lowercase word that was reached
// and one of the records stored for it.
type Match struct {
	Word  string `json:"word"`
	Value Record `json:"value"`
}

// Option configures an Index.
type Option func(*Index)

// WithMaxRecordsPerNode caps how many records a single word keeps.
// Non-positive values are ignored.
func WithMaxRecordsPerNode(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.maxRecords = n
		}
	}
}

// WithMaxWordLength sets the rune length words are truncated to before
// indexing. Non-positive values are ignored.
func WithMaxWordLength(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.maxWordLen = n
		}
	}
}

// WithMaxResults sets the result count used when a query passes a
// non-positive limit. Non-positive values are ignored.
func WithMaxResults(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.maxResults = n
		}
	}
}

// Index is a prefix trie over lowercase words.
type Index struct {
	root *node

	maxRecords int
	maxWordLen int
	maxResults int

	nodes int // excluding root
	words int // terminal nodes
}

// New returns an empty Index.
func New(opts ...Option) *Index {
	ix := &Index{
		root:       newNode(),
		maxRecords: DefaultMaxRecordsPerNode,
		maxWordLen: DefaultMaxWordLength,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Insert indexes rec under word.
//
// Empty words and records without an ID are ignored. The record is dropped
// when the word already holds a record with the same ID or already holds
// the maximum number of records; existing records are never evicted.
func (ix *Index) Insert(word string, rec Record) {
	if word == "" || rec.ID == "" {
		return
	}

	key := truncateRunes(fold(word), ix.maxWordLen)

	n := ix.root
	for _, r := range key {
		next := n.child(r)
		if next == nil {
			next = n.addChild(r)
			ix.nodes++
		}
		n = next
	}

	if !n.terminal {
		n.terminal = true
		ix.words++
	}
	if len(n.records) >= ix.maxRecords || n.recordIndex(rec.ID) >= 0 {
		return
	}
	n.records = append(n.records, Record{
		ID:       rec.ID,
		Name:     rec.Name,
		Location: rec.Location,
	})
}

// FindWordsWithPrefix returns up to limit records whose word starts with
// prefix, in breadth-first order from the prefix node. A record ID appears
// at most once in the result.
//
// An empty prefix or a prefix that leaves the trie yields no results. A
// non-positive limit falls back to the configured default.
func (ix *Index) FindWordsWithPrefix(prefix string, limit int) []Match {
	if prefix == "" {
		return nil
	}
	if limit <= 0 {
		limit = ix.maxResults
	}

	key := fold(prefix)
	n := ix.root
	for _, r := range key {
		n = n.child(r)
		if n == nil {
			return nil
		}
	}

	type item struct {
		n    *node
		word string
	}

	var (
		out  []Match
		seen = make(map[string]struct{})
	)
	queue := []item{{n: n, word: key}}
	for head := 0; head < len(queue); head++ {
		it := queue[head]
		if it.n.terminal {
			for _, rec := range it.n.records {
				if _, dup := seen[rec.ID]; dup {
					continue
				}
				seen[rec.ID] = struct{}{}
				out = append(out, Match{Word: it.word, Value: rec})
				if len(out) == limit {
					return out
				}
			}
		}
		for _, e := range it.n.edges {
			queue = append(queue, item{n: e.n, word: it.word + string(e.r)})
		}
	}
	return out
}

// Delete removes the record with the given ID from the word it was indexed
// under and prunes branches left without words. It reports whether a
// record was removed.
func (ix *Index) Delete(word, id string) bool {
	if word == "" || id == "" {
		return false
	}

	key := []rune(truncateRunes(fold(word), ix.maxWordLen))
	path := make([]*node, 0, len(key)+1)

	n := ix.root
	path = append(path, n)
	for _, r := range key {
		n = n.child(r)
		if n == nil {
			return false
		}
		path = append(path, n)
	}

	i := n.recordIndex(id)
	if i < 0 {
		return false
	}
	n.records = slices.Delete(n.records, i, i+1)
	if len(n.records) > 0 {
		return true
	}

	n.terminal = false
	n.records = nil
	ix.words--

	for d := len(path) - 1; d > 0; d-- {
		cur := path[d]
		if cur.terminal || len(cur.edges) > 0 {
			break
		}
		path[d-1].removeChild(key[d-1])
		ix.nodes--
	}
	return true
}

// Clear drops every indexed word.
func (ix *Index) Clear() {
	ix.root = newNode()
	ix.nodes = 0
	ix.words = 0
}

// NodeCount returns the number of trie nodes below the root.
func (ix *Index) NodeCount() int { return ix.nodes }

// Len returns the number of distinct indexed words.
func (ix *Index) Len() int { return ix.words }

// fold lowercases s with Unicode rules. A Caser keeps state, so one is
// built per call.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	i := 0
	for pos := range s {
		if i == max {
			return s[:pos]
		}
		i++
	}
	return s
}

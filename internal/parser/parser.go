// Package parser turns pasted text, CSV exports, and .webloc files into
// deduplicated lists of canonical YouTube video ids. All parsers are total:
// malformed input yields an empty result, never an error.
package parser

import (
	"strings"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/canonical"
)

// Entry is one accepted input: the canonical id plus the URL it came from.
type Entry struct {
	ID  string
	URL string
}

// Result is the outcome of parsing one input. Entries preserve first-occurrence
// order and are deduplicated by canonical id. Rejected counts inputs that were
// discarded because they did not canonicalize; duplicates are not rejections.
type Result struct {
	Entries  []Entry
	Rejected int
}

// IDs returns the canonical ids in order.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		ids[i] = e.ID
	}
	return ids
}

// ParseStrings canonicalizes an already-split list of URL candidates, as
// submitted by the bulk API.
func ParseStrings(candidates []string) Result {
	c := newCollector()
	for _, candidate := range candidates {
		c.add(strings.TrimSpace(candidate))
	}
	return c.result()
}

// collector accumulates entries with first-wins id dedup.
type collector struct {
	seen     map[string]struct{}
	entries  []Entry
	rejected int
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{})}
}

// add canonicalizes one candidate URL. Unparseable candidates count as
// rejected; repeats of an already-collected id are silently dropped.
func (c *collector) add(candidate string) {
	id, ok := canonical.ExtractVideoID(candidate)
	if !ok {
		c.rejected++
		return
	}
	if _, dup := c.seen[id]; dup {
		return
	}
	c.seen[id] = struct{}{}
	c.entries = append(c.entries, Entry{ID: id, URL: candidate})
}

func (c *collector) result() Result {
	return Result{Entries: c.entries, Rejected: c.rejected}
}

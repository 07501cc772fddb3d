package domain

import "time"

// Node is one element of the scanned source tree. The tree is rebuilt on
// every run; the cache is the only durable state.
type Node struct {
	Path        string
	RelPath     string
	IsDir       bool
	Children    []*Node
	Fingerprint string
	Summary     string
}

// HasSummary reports whether the node reached a terminal state with a
// summary (cached, generated or fallback).
func (n *Node) HasSummary() bool {
	return n.Summary != ""
}

// Count returns the number of nodes in the subtree rooted at n,
// including n itself.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// CacheEntry is one durable summary record. An entry is valid for a node
// only while its fingerprint equals the node's current fingerprint.
type CacheEntry struct {
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint"`
	Summary     string `json:"summary"`
	CreatedAt   int64  `json:"created_at"`
	IsDir       bool   `json:"is_dir"`
}

// Age returns how old the entry is at time now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(e.CreatedAt, 0))
}

// LineMapping ties one document line to the cache entries that justify it.
// ValidatedMark is the combined digest of the key fingerprints observed the
// last time the mapping was examined; empty means never examined.
type LineMapping struct {
	LineNumber    int      `json:"line_number"`
	LineText      string   `json:"line_text"`
	CacheKeys     []string `json:"cache_keys"`
	ValidatedMark string   `json:"validated_mark,omitempty"`
}

// MappingSet is the durable mapping record for one document. Mappings are
// rebuilt wholesale whenever DocFingerprint changes.
type MappingSet struct {
	DocFingerprint string        `json:"doc_fingerprint"`
	Mappings       []LineMapping `json:"mappings"`
}

// Correction is one proposed document fix.
type Correction struct {
	LineNumber int
	Current    string
	Suggested  string
	Reason     string
	Affected   []string
}

// CacheStats is read-only store introspection.
type CacheStats struct {
	Entries    int
	TotalBytes int64
}

// SummarizeReport is the outcome of one tree-summarization run. Errors
// holds non-fatal per-node failures; the run itself only fails when the
// root produced no summary.
type SummarizeReport struct {
	RootSummary string
	Generated   int
	CacheHits   int
	Skipped     int
	Fallbacks   int
	Errors      []string
	Stats       CacheStats
}

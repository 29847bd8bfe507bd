// Package resolver classifies intra-corpus references as resolved or dangling
// against the slug index and aggregates them into a per-build report.
package resolver

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/contentpress/internal/document"
	"git.home.luguber.info/inful/contentpress/internal/parser"
)

// Status is the resolution state of a cross reference.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusDangling Status = "dangling"
)

// Entry is one (source document, target slug) pair in the report.
type Entry struct {
	SourceID   string `json:"sourceId"`
	TargetSlug string `json:"targetSlug"`
	Status     Status `json:"status"`
}

// Report aggregates reference resolution for a whole build. Entries are
// duplicate-suppressed by (source, target) pair and sorted for deterministic
// output.
type Report struct {
	Entries []Entry `json:"entries"`
}

// Dangling returns only the dangling entries.
func (r *Report) Dangling() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Status == StatusDangling {
			out = append(out, e)
		}
	}
	return out
}

// HasDangling reports whether any reference failed to resolve.
func (r *Report) HasDangling() bool {
	for _, e := range r.Entries {
		if e.Status == StatusDangling {
			return true
		}
	}
	return false
}

// Resolver classifies internal link targets against a slug index.
type Resolver struct {
	index *document.SlugIndex
}

// New creates a resolver over the given slug index.
func New(index *document.SlugIndex) *Resolver {
	return &Resolver{index: index}
}

// Resolve walks every document's blocks, extracts internal targets (leading
// "/") and produces the build report.
//
// blocksByID maps a document id to the parsed blocks of one of its variants;
// references are locale-independent, so variants share one report entry set
// per source id.
func (r *Resolver) Resolve(blocksByID map[string][]parser.Block) *Report {
	seen := make(map[Entry]struct{})
	report := &Report{}

	for sourceID, blocks := range blocksByID {
		for _, target := range InternalTargets(blocks) {
			entry := Entry{SourceID: sourceID, TargetSlug: target, Status: StatusDangling}
			if _, ok := r.index.Lookup(target); ok {
				entry.Status = StatusResolved
			}
			if _, dup := seen[entry]; dup {
				continue
			}
			seen[entry] = struct{}{}
			report.Entries = append(report.Entries, entry)
		}
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		if report.Entries[i].SourceID != report.Entries[j].SourceID {
			return report.Entries[i].SourceID < report.Entries[j].SourceID
		}
		return report.Entries[i].TargetSlug < report.Entries[j].TargetSlug
	})

	return report
}

// InternalTargets extracts internal link targets from a block sequence,
// normalized for index lookup: fragments and query strings stripped,
// duplicates preserved in order (the report layer deduplicates).
func InternalTargets(blocks []parser.Block) []string {
	var targets []string
	for _, link := range parser.AllLinks(blocks) {
		dest := link.Destination
		if !strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "//") {
			continue
		}
		if i := strings.IndexAny(dest, "#?"); i >= 0 {
			dest = dest[:i]
		}
		if dest == "" {
			continue
		}
		targets = append(targets, dest)
	}
	return targets
}

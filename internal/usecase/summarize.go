package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/kstonekuan/docs-tree-ai/internal/adapter/fs"
	"github.com/kstonekuan/docs-tree-ai/internal/adapter/hasher"
	"github.com/kstonekuan/docs-tree-ai/internal/adapter/store"
	"github.com/kstonekuan/docs-tree-ai/internal/domain"
	"github.com/kstonekuan/docs-tree-ai/internal/logger"
	"github.com/kstonekuan/docs-tree-ai/internal/port"
)

// ErrNoRootSummary is returned when the walk ends with no summary at the
// root, e.g. an empty or fully unsummarizable tree.
var ErrNoRootSummary = errors.New("failed to produce a root-level project summary")

// ProgressFunc reports walk progress: nodes finished, total nodes, and the
// node just completed.
type ProgressFunc func(done, total int, relPath string)

// Summarizer drives the bottom-up tree summarization. Every node reaches a
// terminal state (summary, fallback or skip) before its parent is
// processed; that ordering is required, not an optimization, because a
// directory's prompt and fingerprint both depend on final child results.
type Summarizer struct {
	store    *store.SummaryStore
	gen      port.Generator
	force    bool
	progress ProgressFunc
}

// NewSummarizer creates a summarizer. With force set, cache reads are
// skipped but fresh results are still written.
func NewSummarizer(st *store.SummaryStore, gen port.Generator, force bool) *Summarizer {
	return &Summarizer{store: st, gen: gen, force: force}
}

// SetProgress installs a progress callback.
func (s *Summarizer) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// Run walks the tree in post-order and returns the project summary report.
// Per-node failures are accumulated in the report; only a missing root
// summary or context cancellation fail the run.
func (s *Summarizer) Run(ctx context.Context, root *domain.Node) (*domain.SummarizeReport, error) {
	report := &domain.SummarizeReport{}
	walk := &walkState{total: root.Count(), fn: s.progress}

	if err := s.summarizeNode(ctx, root, report, walk); err != nil {
		return nil, err
	}

	if !root.HasSummary() {
		return nil, ErrNoRootSummary
	}
	report.RootSummary = root.Summary

	if stats, err := s.store.Stats(); err == nil {
		report.Stats = stats
	}
	return report, nil
}

type walkState struct {
	done  int
	total int
	fn    ProgressFunc
}

func (w *walkState) step(relPath string) {
	w.done++
	if w.fn != nil {
		w.fn(w.done, w.total, relPath)
	}
}

func (s *Summarizer) summarizeNode(ctx context.Context, node *domain.Node, report *domain.SummarizeReport, walk *walkState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if node.IsDir {
		for _, child := range node.Children {
			if err := s.summarizeNode(ctx, child, report, walk); err != nil {
				return err
			}
		}
		s.summarizeDirectory(ctx, node, report)
	} else {
		s.summarizeFile(ctx, node, report)
	}

	walk.step(node.RelPath)
	return nil
}

// summarizeFile brings a leaf to a terminal state. Unreadable or empty
// files are skipped without error; a generation failure after retries
// leaves the node without a summary and processing continues.
func (s *Summarizer) summarizeFile(ctx context.Context, node *domain.Node, report *domain.SummarizeReport) {
	fp, err := hasher.HashFile(node.Path)
	if err != nil {
		logger.Warn("skipping unreadable file %s: %v", node.RelPath, err)
		report.Skipped++
		return
	}
	node.Fingerprint = fp

	if !s.force {
		if summary, ok := s.store.Get(node.Path, fp); ok {
			logger.Debug("cache hit: %s", node.RelPath)
			node.Summary = summary
			report.CacheHits++
			return
		}
	}

	content, err := fs.ReadFile(node.Path)
	if err != nil {
		logger.Warn("skipping file %s: %v", node.RelPath, err)
		report.Skipped++
		return
	}
	if strings.TrimSpace(content) == "" {
		logger.Debug("skipping empty file: %s", node.RelPath)
		report.Skipped++
		return
	}

	summary, err := s.gen.SummarizeFile(ctx, node.RelPath, content)
	if err != nil {
		logger.Warn("failed to summarize %s: %v", node.RelPath, err)
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", node.RelPath, err))
		return
	}

	if err := s.store.Put(node.Path, fp, summary, false); err != nil {
		logger.Warn("failed to cache summary for %s: %v", node.RelPath, err)
		report.Errors = append(report.Errors, fmt.Sprintf("cache %s: %v", node.RelPath, err))
	}
	node.Summary = summary
	report.Generated++
	logger.Info("generated summary for %s", node.RelPath)
}

// summarizeDirectory composes a directory's summary from its children's
// final summaries. A directory whose children produced nothing is skipped;
// a generation failure falls back to a deterministic concatenation so the
// directory still contributes to its own parent.
func (s *Summarizer) summarizeDirectory(ctx context.Context, node *domain.Node, report *domain.SummarizeReport) {
	childSummaries := formatChildSummaries(node.Children)
	if len(childSummaries) == 0 {
		logger.Debug("no summarizable content in directory: %s", node.RelPath)
		report.Skipped++
		return
	}

	var digests []string
	for _, child := range node.Children {
		if child.Fingerprint != "" {
			digests = append(digests, child.Fingerprint)
		}
	}
	fp := hasher.HashChildren(digests)
	node.Fingerprint = fp

	if !s.force {
		if summary, ok := s.store.Get(node.Path, fp); ok {
			logger.Debug("cache hit: %s/", node.RelPath)
			node.Summary = summary
			report.CacheHits++
			return
		}
	}

	name := node.RelPath
	if name == "." {
		name = "project root"
	} else {
		name = path.Base(name)
	}

	summary, err := s.gen.SummarizeDirectory(ctx, name, childSummaries)
	if err != nil {
		logger.Warn("failed to summarize directory %s, using fallback: %v", node.RelPath, err)
		report.Errors = append(report.Errors, fmt.Sprintf("%s/: %v", node.RelPath, err))
		// Degraded fallback: present but never cached, since it is not the
		// service's answer.
		node.Summary = "Contains: " + strings.Join(childSummaries, ", ")
		report.Fallbacks++
		return
	}

	if err := s.store.Put(node.Path, fp, summary, true); err != nil {
		logger.Warn("failed to cache summary for %s: %v", node.RelPath, err)
		report.Errors = append(report.Errors, fmt.Sprintf("cache %s/: %v", node.RelPath, err))
	}
	node.Summary = summary
	report.Generated++
	logger.Info("generated directory summary for %s", node.RelPath)
}

// formatChildSummaries renders the summaries of children that produced
// one, each tagged with its name and a directory/file marker, in tree
// order.
func formatChildSummaries(children []*domain.Node) []string {
	var out []string
	for _, child := range children {
		if !child.HasSummary() {
			continue
		}
		name := path.Base(child.RelPath)
		if child.IsDir {
			out = append(out, fmt.Sprintf("**%s/** (directory): %s", name, child.Summary))
		} else {
			out = append(out, fmt.Sprintf("**%s**: %s", name, child.Summary))
		}
	}
	return out
}

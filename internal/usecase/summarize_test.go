package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kstonekuan/docs-tree-ai/internal/adapter/fs"
	"github.com/kstonekuan/docs-tree-ai/internal/adapter/llm"
	"github.com/kstonekuan/docs-tree-ai/internal/adapter/store"
	"github.com/kstonekuan/docs-tree-ai/internal/domain"
)

func newTestStore(t *testing.T) *store.SummaryStore {
	t.Helper()
	s, err := store.NewSummaryStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// newProjectTree lays out a small project:
//
//	a/one.go  a/two.go  b/three.go
func newProjectTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "one.go"), "package a // one")
	writeFile(t, filepath.Join(root, "a", "two.go"), "package a // two")
	writeFile(t, filepath.Join(root, "b", "three.go"), "package b // three")
	return root
}

func scanTree(t *testing.T, root string) *domain.Node {
	t.Helper()
	tree, err := fs.NewScanner([]string{"**/*.go"}, nil).Scan(root)
	if err != nil {
		t.Fatalf("failed to scan tree: %v", err)
	}
	return tree
}

func TestRun_GeneratesEverythingOnFirstRun(t *testing.T) {
	root := newProjectTree(t)
	st := newTestStore(t)
	mock := &llm.MockGenerator{}

	report, err := NewSummarizer(st, mock, false).Run(context.Background(), scanTree(t, root))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3 files + 2 directories + root.
	if report.Generated != 6 {
		t.Errorf("expected 6 generated, got %d", report.Generated)
	}
	if report.CacheHits != 0 {
		t.Errorf("expected 0 cache hits, got %d", report.CacheHits)
	}
	if report.RootSummary == "" {
		t.Error("expected a root summary")
	}
	if len(mock.FileCalls) != 3 {
		t.Errorf("expected 3 file calls, got %d", len(mock.FileCalls))
	}
	if len(mock.DirCalls) != 3 {
		t.Errorf("expected 3 directory calls, got %d", len(mock.DirCalls))
	}
}

func TestRun_SecondRunIsFullyCached(t *testing.T) {
	root := newProjectTree(t)
	st := newTestStore(t)

	if _, err := NewSummarizer(st, &llm.MockGenerator{}, false).Run(context.Background(), scanTree(t, root)); err != nil {
		t.Fatal(err)
	}

	mock := &llm.MockGenerator{}
	report, err := NewSummarizer(st, mock, false).Run(context.Background(), scanTree(t, root))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.Calls() != 0 {
		t.Errorf("expected zero service calls on unchanged tree, got %d", mock.Calls())
	}
	if report.Generated != 0 {
		t.Errorf("expected 0 generated, got %d", report.Generated)
	}
	if report.CacheHits != 6 {
		t.Errorf("expected 6 cache hits, got %d", report.CacheHits)
	}
	if report.RootSummary == "" {
		t.Error("expected a root summary from cache")
	}
}

func TestRun_LeafChangePropagatesToAncestorsOnly(t *testing.T) {
	root := newProjectTree(t)
	st := newTestStore(t)

	if _, err := NewSummarizer(st, &llm.MockGenerator{}, false).Run(context.Background(), scanTree(t, root)); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(root, "a", "one.go"), "package a // one, edited")

	mock := &llm.MockGenerator{}
	report, err := NewSummarizer(st, mock, false).Run(context.Background(), scanTree(t, root))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.FileCalls) != 1 || mock.FileCalls[0] != "a/one.go" {
		t.Errorf("expected only a/one.go regenerated, got %v", mock.FileCalls)
	}
	// The changed file's directory and the root, but not b.
	if len(mock.DirCalls) != 2 {
		t.Errorf("expected 2 directory calls (a and root), got %v", mock.DirCalls)
	}
	// two.go, b/three.go and b stay cached.
	if report.CacheHits != 3 {
		t.Errorf("expected 3 cache hits, got %d", report.CacheHits)
	}
}

func TestRun_InvalidatedEntryRegeneratesJustThatNode(t *testing.T) {
	root := newProjectTree(t)
	st := newTestStore(t)

	if _, err := NewSummarizer(st, &llm.MockGenerator{}, false).Run(context.Background(), scanTree(t, root)); err != nil {
		t.Fatal(err)
	}

	if err := st.Invalidate(filepath.Join(root, "a", "two.go")); err != nil {
		t.Fatal(err)
	}

	mock := &llm.MockGenerator{}
	_, err := NewSummarizer(st, mock, false).Run(context.Background(), scanTree(t, root))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.FileCalls) != 1 || mock.FileCalls[0] != "a/two.go" {
		t.Errorf("expected only a/two.go regenerated, got %v", mock.FileCalls)
	}
	// The file's content did not change, so no ancestor fingerprint moves.
	if len(mock.DirCalls) != 0 {
		t.Errorf("expected no directory calls, got %v", mock.DirCalls)
	}
}

func TestRun_ForceBypassesCacheReads(t *testing.T) {
	root := newProjectTree(t)
	st := newTestStore(t)

	if _, err := NewSummarizer(st, &llm.MockGenerator{}, false).Run(context.Background(), scanTree(t, root)); err != nil {
		t.Fatal(err)
	}

	mock := &llm.MockGenerator{}
	report, err := NewSummarizer(st, mock, true).Run(context.Background(), scanTree(t, root))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.CacheHits != 0 {
		t.Errorf("expected no cache hits under force, got %d", report.CacheHits)
	}
	if report.Generated != 6 {
		t.Errorf("expected 6 regenerated under force, got %d", report.Generated)
	}
}

func TestRun_SkipsEmptyFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "empty.go"), "   \n\t\n")

	st := newTestStore(t)
	mock := &llm.MockGenerator{}
	report, err := NewSummarizer(st, mock, false).Run(context.Background(), scanTree(t, root))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", report.Skipped)
	}
	for _, call := range mock.FileCalls {
		if call == "empty.go" {
			t.Error("expected empty file to never reach the generator")
		}
	}
}

func TestRun_DirectoryFallbackOnFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")

	st := newTestStore(t)
	if _, err := NewSummarizer(st, &llm.MockGenerator{}, false).Run(context.Background(), scanTree(t, root)); err != nil {
		t.Fatal(err)
	}

	// Drop only the root's entry so the broken generator is asked for it.
	tree := scanTree(t, root)
	if err := st.Invalidate(tree.Path); err != nil {
		t.Fatal(err)
	}

	broken := &llm.MockGenerator{Err: llm.ErrGenerationFailed}
	report, err := NewSummarizer(st, broken, false).Run(context.Background(), tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Fallbacks != 1 {
		t.Errorf("expected 1 fallback, got %d", report.Fallbacks)
	}
	if !strings.HasPrefix(report.RootSummary, "Contains: ") {
		t.Errorf("expected fallback root summary, got %q", report.RootSummary)
	}

	// Fallbacks are never cached: a working generator is consulted again.
	fresh := &llm.MockGenerator{}
	report, err = NewSummarizer(st, fresh, false).Run(context.Background(), scanTree(t, root))
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh.DirCalls) != 1 {
		t.Errorf("expected the root to be regenerated after a fallback run, got %v", fresh.DirCalls)
	}
	if report.Fallbacks != 0 {
		t.Errorf("expected no fallback with a working generator, got %d", report.Fallbacks)
	}
}

func TestRun_NoRootSummary(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "empty.go"), "")

	st := newTestStore(t)
	_, err := NewSummarizer(st, &llm.MockGenerator{}, false).Run(context.Background(), scanTree(t, root))
	if err != ErrNoRootSummary {
		t.Errorf("expected ErrNoRootSummary, got %v", err)
	}
}

func TestRun_Cancellation(t *testing.T) {
	root := newProjectTree(t)
	st := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSummarizer(st, &llm.MockGenerator{}, false).Run(ctx, scanTree(t, root))
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_ProgressCoversEveryNode(t *testing.T) {
	root := newProjectTree(t)
	st := newTestStore(t)

	tree := scanTree(t, root)
	s := NewSummarizer(st, &llm.MockGenerator{}, false)

	var steps int
	var lastDone, lastTotal int
	s.SetProgress(func(done, total int, relPath string) {
		steps++
		lastDone, lastTotal = done, total
	})

	if _, err := s.Run(context.Background(), tree); err != nil {
		t.Fatal(err)
	}

	if steps != tree.Count() {
		t.Errorf("expected %d progress steps, got %d", tree.Count(), steps)
	}
	if lastDone != lastTotal {
		t.Errorf("expected final progress %d/%d to be complete", lastDone, lastTotal)
	}
}

package llm

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
)

// MockGenerator is a deterministic generator for tests. It records every
// call so tests can assert cache-hit behavior (a fully cached run makes
// zero service calls).
type MockGenerator struct {
	// Err, if set, is returned by every operation.
	Err error

	// FailFirst makes the first N calls fail before succeeding.
	FailFirst int

	// CorrectionResponse is returned by ProposeCorrection; empty means the
	// NO_CHANGE sentinel.
	CorrectionResponse string

	mu          sync.Mutex
	calls       int
	FileCalls   []string
	DirCalls    []string
	Corrections []string
}

// Calls returns the total number of operations invoked.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Reset clears recorded calls without changing the configured behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.FileCalls = nil
	m.DirCalls = nil
	m.Corrections = nil
}

func (m *MockGenerator) SummarizeFile(ctx context.Context, relPath, content string) (string, error) {
	if err := m.record(&m.FileCalls, relPath); err != nil {
		return "", err
	}
	return fmt.Sprintf("Summary of %s covering %d bytes of source", relPath, len(content)), nil
}

func (m *MockGenerator) SummarizeDirectory(ctx context.Context, name string, childSummaries []string) (string, error) {
	if err := m.record(&m.DirCalls, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Directory %s groups %d components: %s",
		path.Base(name), len(childSummaries), strings.Join(childSummaries, "; ")), nil
}

func (m *MockGenerator) ProposeCorrection(ctx context.Context, prompt string) (string, error) {
	if err := m.record(&m.Corrections, prompt); err != nil {
		return "", err
	}
	if m.CorrectionResponse != "" {
		return m.CorrectionResponse, nil
	}
	return "NO_CHANGE", nil
}

func (m *MockGenerator) record(log *[]string, arg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	*log = append(*log, arg)
	if m.Err != nil {
		return m.Err
	}
	if m.FailFirst > 0 {
		m.FailFirst--
		return fmt.Errorf("%w: transient failure", ErrGenerationFailed)
	}
	return nil
}

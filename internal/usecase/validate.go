package usecase

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kstonekuan/docs-tree-ai/internal/adapter/hasher"
	"github.com/kstonekuan/docs-tree-ai/internal/adapter/store"
	"github.com/kstonekuan/docs-tree-ai/internal/domain"
	"github.com/kstonekuan/docs-tree-ai/internal/logger"
	"github.com/kstonekuan/docs-tree-ai/internal/port"
)

// Thresholds tunes the line-relevance heuristic. The decision boundary —
// a path/name match OR at least KeywordMinMatches keyword matches — is
// fixed; only the constants move.
type Thresholds struct {
	StemMinLen        int
	KeywordMinLen     int
	KeywordTake       int
	KeywordMinMatches int
}

// DefaultThresholds returns the stock heuristic constants.
func DefaultThresholds() Thresholds {
	return Thresholds{StemMinLen: 3, KeywordMinLen: 5, KeywordTake: 5, KeywordMinMatches: 2}
}

// Validator maps document lines to the cache entries that justify them and
// proposes corrections for lines whose justifying nodes changed.
type Validator struct {
	store *store.SummaryStore
	gen   port.Generator
	th    Thresholds
}

// NewValidator creates a document validator.
func NewValidator(st *store.SummaryStore, gen port.Generator, th Thresholds) *Validator {
	return &Validator{store: st, gen: gen, th: th}
}

// Validate checks the document at docPath against the current cache state
// and returns ordered correction proposals. An empty list means the
// document is up to date, not unchecked. A missing document short-circuits
// into a single suggestion seeding it from the project summary.
func (v *Validator) Validate(ctx context.Context, baseDir, docPath, projectSummary string) ([]domain.Correction, error) {
	data, err := os.ReadFile(docPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Correction{v.seedSuggestion(baseDir, projectSummary)}, nil
		}
		return nil, fmt.Errorf("failed to read document %s: %w", docPath, err)
	}
	content := string(data)
	docFP := hasher.HashContent(content)

	entries, err := v.store.Entries()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entries: %w", err)
	}
	byKey := make(map[string]domain.CacheEntry, len(entries))
	for _, e := range entries {
		byKey[e.Path] = e
	}

	set, err := v.store.GetMappings()
	if err != nil {
		return nil, err
	}

	// Any document edit shifts line numbers, so mappings are rebuilt
	// wholesale rather than patched.
	if set.DocFingerprint != docFP {
		logger.Info("document changed, rebuilding line mappings")
		set = domain.MappingSet{
			DocFingerprint: docFP,
			Mappings:       v.buildMappings(content, baseDir, entries),
		}
		if err := v.store.PutMappings(set); err != nil {
			return nil, err
		}
	}

	var corrections []domain.Correction
	changed := false

	for i := range set.Mappings {
		m := &set.Mappings[i]
		mark := v.currentMark(m, byKey)

		if m.ValidatedMark != "" && m.ValidatedMark == mark {
			continue // all justifying nodes unchanged, no service call
		}

		corr, err := v.examine(ctx, m, byKey, projectSummary)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Degrade to "no correction for this mapping". The mark stays
			// untouched so the line is examined again next run.
			logger.Warn("could not examine line %d: %v", m.LineNumber, err)
			continue
		}
		if corr != nil {
			corrections = append(corrections, *corr)
		}

		m.ValidatedMark = mark
		changed = true
	}

	if changed {
		if err := v.store.PutMappings(set); err != nil {
			return nil, err
		}
	}

	sort.Slice(corrections, func(i, j int) bool {
		return corrections[i].LineNumber < corrections[j].LineNumber
	})
	return corrections, nil
}

func (v *Validator) seedSuggestion(baseDir, projectSummary string) domain.Correction {
	name := filepath.Base(baseDir)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "Project"
	}
	return domain.Correction{
		LineNumber: 0,
		Suggested:  fmt.Sprintf("# %s\n\n%s", name, projectSummary),
		Reason:     "document does not exist",
	}
}

// buildMappings scans the document and associates each content-bearing
// line with the cache keys judged relevant to it. Lines with no relevant
// key get no mapping.
func (v *Validator) buildMappings(content, baseDir string, entries []domain.CacheEntry) []domain.LineMapping {
	var mappings []domain.LineMapping

	for i, line := range strings.Split(content, "\n") {
		if !isContentLine(line) {
			continue
		}
		keys := v.relevantKeys(line, baseDir, entries)
		if len(keys) == 0 {
			continue
		}
		mappings = append(mappings, domain.LineMapping{
			LineNumber: i + 1,
			LineText:   line,
			CacheKeys:  keys,
		})
	}

	logger.Debug("built %d line mappings", len(mappings))
	return mappings
}

var structuralKeywords = []string{
	"module", "function", "class", "component", "file", "directory",
	"api", "endpoint", "service", "manager", "handler", "validator",
	"scanner", "client", "cache", "config", "error", "test", "util", "lib",
}

var sourceExtensions = []string{
	".go", ".rs", ".py", ".js", ".ts", ".java", ".cpp", ".c", ".h",
	".rb", ".php", ".sh", ".sql", ".md", ".yaml", ".yml", ".json", ".toml",
}

// isContentLine filters lines worth mapping: non-empty, not a heading,
// fence or rule, and carrying at least one domain-signal token.
func isContentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" ||
		strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "```") ||
		strings.HasPrefix(trimmed, "---") ||
		strings.HasPrefix(trimmed, "***") ||
		strings.HasPrefix(trimmed, "___") {
		return false
	}

	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "/") {
		return true
	}
	for _, ext := range sourceExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	for _, kw := range structuralKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// relevantKeys returns the cache keys relevant to a line: the line
// mentions the node's relative path, file name or a long-enough name stem,
// OR enough of the longest words of the node's summary appear in it.
func (v *Validator) relevantKeys(line, baseDir string, entries []domain.CacheEntry) []string {
	lower := strings.ToLower(line)
	var keys []string
	seen := make(map[string]bool)

	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	for _, entry := range entries {
		rel := relativeKey(baseDir, entry.Path)
		relLower := strings.ToLower(rel)
		name := strings.ToLower(path.Base(rel))
		stem := strings.TrimSuffix(name, path.Ext(name))

		if strings.Contains(lower, relLower) ||
			strings.Contains(lower, name) ||
			(len(stem) > v.th.StemMinLen && strings.Contains(lower, stem)) {
			add(entry.Path)
			continue
		}

		matches := 0
		for _, kw := range longestWords(entry.Summary, v.th.KeywordMinLen, v.th.KeywordTake) {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matches++
			}
		}
		if matches >= v.th.KeywordMinMatches {
			add(entry.Path)
		}
	}

	return keys
}

// longestWords picks the `take` longest words of s strictly longer than
// minLen, ties broken by first appearance.
func longestWords(s string, minLen, take int) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if len(w) > minLen {
			words = append(words, w)
		}
	}
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	if len(words) > take {
		words = words[:take]
	}
	return words
}

// currentMark combines the mapping's key fingerprints into the single
// "last validated" marker. A key with no cache entry contributes an empty
// digest, so its disappearance also changes the mark.
func (v *Validator) currentMark(m *domain.LineMapping, byKey map[string]domain.CacheEntry) string {
	digests := make([]string, 0, len(m.CacheKeys))
	for _, key := range m.CacheKeys {
		if entry, ok := byKey[key]; ok {
			digests = append(digests, entry.Fingerprint)
		} else {
			digests = append(digests, "")
		}
	}
	return hasher.HashChildren(digests)
}

// examine asks the generator whether a mapped line is still accurate. A
// correction is emitted only when the response is neither the no-change
// sentinel nor identical to the current line.
func (v *Validator) examine(ctx context.Context, m *domain.LineMapping, byKey map[string]domain.CacheEntry, projectSummary string) (*domain.Correction, error) {
	var summaries []string
	for _, key := range m.CacheKeys {
		if entry, ok := byKey[key]; ok {
			summaries = append(summaries, fmt.Sprintf("%s: %s", path.Base(entry.Path), entry.Summary))
		}
	}
	if len(summaries) == 0 {
		return nil, nil
	}

	prompt := buildCorrectionPrompt(m, summaries, projectSummary)
	response, err := v.gen.ProposeCorrection(ctx, prompt)
	if err != nil {
		return nil, err
	}

	response = strings.TrimSpace(response)
	if response == port.NoChange || response == m.LineText {
		return nil, nil
	}

	return &domain.Correction{
		LineNumber: m.LineNumber,
		Current:    m.LineText,
		Suggested:  response,
		Reason:     "content outdated based on current code",
		Affected:   append([]string(nil), m.CacheKeys...),
	}, nil
}

func buildCorrectionPrompt(m *domain.LineMapping, summaries []string, projectSummary string) string {
	return fmt.Sprintf(
		"The following line in the project document may be outdated:\n\n"+
			"Line %d: %q\n\n"+
			"Current code summaries:\n%s\n\n"+
			"Project context:\n%s\n\n"+
			"If this line needs updating based on the current code, provide a corrected version. "+
			"If the line is still accurate, respond with '%s'. "+
			"Only provide the updated line text, nothing else.",
		m.LineNumber, m.LineText, strings.Join(summaries, "\n"), projectSummary, port.NoChange)
}

// relativeKey renders a cache key relative to the project directory for
// matching against document text. Keys outside the project are used as-is.
func relativeKey(baseDir, key string) string {
	base := filepath.ToSlash(baseDir)
	if rel, err := filepath.Rel(base, key); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return key
}

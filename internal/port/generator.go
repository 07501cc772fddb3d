package port

import "context"

// NoChange is the sentinel a generator returns when a document line is
// still accurate and needs no correction.
const NoChange = "NO_CHANGE"

// Generator is the natural-language generation service. Implementations
// must be stateless and safe for sequential reuse across calls; all three
// operations may fail transiently and callers apply their own retry policy.
type Generator interface {
	// SummarizeFile produces a summary of one source file.
	SummarizeFile(ctx context.Context, relPath, content string) (string, error)

	// SummarizeDirectory composes a directory summary from its children's
	// already-final summaries, in tree order.
	SummarizeDirectory(ctx context.Context, name string, childSummaries []string) (string, error)

	// ProposeCorrection evaluates a document-line prompt and returns either
	// NoChange or replacement line text.
	ProposeCorrection(ctx context.Context, prompt string) (string, error)
}

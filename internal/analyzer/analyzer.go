// Package analyzer assembles bounded log excerpts into model prompts and
// reports completions back to the caller. Model failures are returned
// in-band as fixed analysis strings, never as process-level errors.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/soclab/hunter/internal/search"
)

// Analyzer runs natural-language analysis over search results.
type Analyzer struct {
	provider Provider
}

// New creates an Analyzer with the given model provider.
func New(provider Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// Analyze builds the prompt for the result and question, runs the model,
// and returns the analysis text. A non-success model status yields the
// fixed "AI model error" string, a transport fault the "AI analysis error"
// string — both in-band, so a dead model backend never fails the request.
func (a *Analyzer) Analyze(ctx context.Context, result *search.Result, question string) string {
	prompt := BuildPrompt(result, question)

	text, err := a.provider.Complete(ctx, prompt)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return fmt.Sprintf("AI model error: %d", statusErr.Code)
		}
		return fmt.Sprintf("AI analysis error: %s", err)
	}
	return text
}

package analyzer

import (
	"fmt"
	"strings"

	"github.com/soclab/hunter/internal/search"
)

const (
	// maxContextHits bounds how many log lines reach the model.
	maxContextHits = 10
	// contextBudget is the hard byte cap on the assembled context block.
	// The cut is positional, not line-aligned.
	contextBudget = 2000
)

const promptTemplate = `You are a cybersecurity expert analyzing SOC logs. Based on the following log data, answer the user's question.

LOG DATA:
%s

USER QUESTION: %s

Please provide:
1. A clear analysis of the logs
2. Any security concerns or patterns identified
3. Recommended actions if applicable
4. Risk assessment (Low/Medium/High)

Keep your response focused and actionable for SOC analysts.`

// BuildPrompt formats a bounded excerpt of the search result plus the
// analyst's question into a single model prompt. The assembler's contract
// ends here; calling the model is the provider's job.
func BuildPrompt(result *search.Result, question string) string {
	var b strings.Builder
	hits := result.Hits
	if len(hits) > maxContextHits {
		hits = hits[:maxContextHits]
	}
	for _, hit := range hits {
		ts := hit.Timestamp()
		if ts == "" {
			ts = "Unknown"
		}
		fmt.Fprintf(&b, "Time: %s\nLog: %s\n\n", ts, hit.Message())
	}

	logContext := b.String()
	if len(logContext) > contextBudget {
		logContext = logContext[:contextBudget]
	}

	return fmt.Sprintf(promptTemplate, logContext, question)
}

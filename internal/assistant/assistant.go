// Package assistant implements the chat-service operations: log search,
// security alert retrieval, model-backed log analysis, and the quick
// per-indicator hunt used by the chat front end.
package assistant

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/soclab/hunter/internal/query"
	"github.com/soclab/hunter/internal/search"
)

const (
	// DefaultTimeRange is the log-search fallback for unknown tokens.
	DefaultTimeRange = "1h"
	// DefaultAlertIndex holds the security alert stream.
	DefaultAlertIndex = "wazuh-alerts-*"

	DefaultAlertSeverity = "medium"
	DefaultAlertLimit    = 20

	defaultTimeRangeDuration = time.Hour
	quickHuntSampleCap       = 5
)

// Executor runs one structured query against the search backend.
type Executor interface {
	Execute(ctx context.Context, indexPattern string, q *query.StructuredQuery) (*search.Result, error)
}

// Analyzer produces a natural-language analysis of a search result.
type Analyzer interface {
	Analyze(ctx context.Context, result *search.Result, question string) string
}

// Assistant serves the chat-side operations.
type Assistant struct {
	executor   Executor
	analyzer   Analyzer
	alertIndex string
	verbose    bool
}

// New creates an Assistant. alertIndex "" uses DefaultAlertIndex; analyzer
// may be nil when only search operations are needed.
func New(executor Executor, analyzer Analyzer, alertIndex string, verbose bool) *Assistant {
	if alertIndex == "" {
		alertIndex = DefaultAlertIndex
	}
	return &Assistant{
		executor:   executor,
		analyzer:   analyzer,
		alertIndex: alertIndex,
		verbose:    verbose,
	}
}

// SearchLogs runs a free-text query over indexPattern within the time
// range. Empty arguments take the operation defaults (query "*", index "*",
// range 1h).
func (a *Assistant) SearchLogs(ctx context.Context, q, timeRange, indexPattern string) (*search.Result, error) {
	if q == "" {
		q = "*"
	}
	built := query.Build(q, timeRange, defaultTimeRangeDuration, query.SizeLogSearch)

	if a.verbose {
		fmt.Fprintf(os.Stderr, "[assistant] search %q range=%s index=%s\n", q, timeRange, indexPattern)
	}
	return a.executor.Execute(ctx, indexPattern, built)
}

// AlertEntry is one security alert formatted for display.
type AlertEntry struct {
	Timestamp   string `json:"timestamp"`
	Rule        string `json:"rule"`
	Level       int64  `json:"level"`
	Agent       string `json:"agent"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// AlertsReport is the outcome of a GetSecurityAlerts call.
type AlertsReport struct {
	Alerts []AlertEntry `json:"alerts"`
	Total  int64        `json:"total"`
}

// GetSecurityAlerts returns recent security alerts from the alert index.
// Severity is a preference, not a filter: matching alerts rank higher but
// others still appear.
func (a *Assistant) GetSecurityAlerts(ctx context.Context, severity string, limit int) (*AlertsReport, error) {
	if severity == "" {
		severity = DefaultAlertSeverity
	}
	if limit <= 0 {
		limit = DefaultAlertLimit
	}

	q := &query.StructuredQuery{
		Must: []query.Clause{
			query.Term{Field: "event.category", Value: "security"},
			query.TimeGTE{Field: query.TimestampField, Value: "now-24h"},
		},
		Should: []query.Clause{
			query.Term{Field: "event.severity", Value: severity},
		},
		Size: limit,
		Sort: []query.SortField{{Field: query.TimestampField, Order: "desc"}},
	}

	res, err := a.executor.Execute(ctx, a.alertIndex, q)
	if err != nil {
		return nil, err
	}

	report := &AlertsReport{Total: res.Total}
	for _, hit := range res.Hits {
		entry := AlertEntry{
			Timestamp:   hit.Timestamp(),
			Rule:        hit.Field("rule", "description"),
			Level:       hit.Int("rule", "level"),
			Agent:       hit.Field("agent", "name"),
			Location:    hit.Field("location"),
			Description: hit.Field("full_log"),
		}
		if entry.Rule == "" {
			entry.Rule = "Unknown rule"
		}
		if entry.Agent == "" {
			entry.Agent = "Unknown"
		}
		if entry.Location == "" {
			entry.Location = "Unknown"
		}
		if entry.Description == "" {
			entry.Description = "No description"
		}
		report.Alerts = append(report.Alerts, entry)
	}
	return report, nil
}

// Analysis is the outcome of an AnalyzeLogs call.
type Analysis struct {
	Analysis  string `json:"analysis"`
	LogsFound int64  `json:"logs_found"`
	Query     string `json:"query"`
	TimeRange string `json:"time_range"`
}

// AnalyzeLogs searches for matching logs, assembles a bounded excerpt, and
// asks the model the analyst's question. A search failure is returned as an
// error before the model is consulted; model failures come back in-band
// inside the analysis text.
func (a *Assistant) AnalyzeLogs(ctx context.Context, question, q, timeRange string) (*Analysis, error) {
	if q == "" {
		q = "*"
	}
	logs, err := a.SearchLogs(ctx, q, timeRange, search.DefaultIndexPattern)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		Analysis:  a.analyzer.Analyze(ctx, logs, question),
		LogsFound: logs.Total,
		Query:     q,
		TimeRange: query.NormalizeToken(timeRange, DefaultTimeRange),
	}, nil
}

// TypedIndicator is a caller-typed indicator for the quick hunt path.
type TypedIndicator struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// QuickHuntEntry is the per-indicator outcome of a quick hunt.
type QuickHuntEntry struct {
	Indicator TypedIndicator `json:"indicator"`
	Matches   int64          `json:"matches"`
	Logs      []search.Hit   `json:"logs,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// QuickHunt runs the chat front end's simpler hunt: the caller supplies the
// indicator type, field expansion is narrower than the full IOC hunt, and
// the window is fixed at 24 hours. Failures stay per-entry.
func (a *Assistant) QuickHunt(ctx context.Context, indicators []TypedIndicator) []QuickHuntEntry {
	entries := make([]QuickHuntEntry, 0, len(indicators))

	for _, ind := range indicators {
		var clause string
		switch ind.Type {
		case "ip":
			clause = fmt.Sprintf("source.ip:%[1]s OR destination.ip:%[1]s", ind.Value)
		case "domain":
			clause = fmt.Sprintf("domain:%[1]s OR url.domain:%[1]s", ind.Value)
		case "hash":
			clause = fmt.Sprintf("file.hash.md5:%[1]s OR file.hash.sha1:%[1]s OR file.hash.sha256:%[1]s", ind.Value)
		default:
			clause = ind.Value
		}

		logs, err := a.SearchLogs(ctx, clause, "24h", search.DefaultIndexPattern)
		if err != nil {
			entries = append(entries, QuickHuntEntry{Indicator: ind, Error: err.Error()})
			continue
		}

		hits := logs.Hits
		if len(hits) > quickHuntSampleCap {
			hits = hits[:quickHuntSampleCap]
		}
		entries = append(entries, QuickHuntEntry{
			Indicator: ind,
			Matches:   logs.Total,
			Logs:      hits,
		})
	}
	return entries
}

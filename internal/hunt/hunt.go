// Package hunt coordinates technique, indicator, and anomaly hunts: it
// builds structured queries, runs them through the search executor, and
// assembles unified reports. Individual failures are reported per item;
// no hunt ever aborts a batch.
package hunt

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/soclab/hunter/internal/catalog"
	"github.com/soclab/hunter/internal/ioc"
	"github.com/soclab/hunter/internal/query"
	"github.com/soclab/hunter/internal/search"
	"github.com/soclab/hunter/internal/sigma"
)

// DefaultTimeRange is the hunt-side fallback for unknown time-range tokens.
const DefaultTimeRange = "24h"

const defaultTimeRangeDuration = 24 * time.Hour

// sampleHitCap bounds the hits carried per indicator in an IOC report.
const sampleHitCap = 5

// aggBucketSize is the bucket count for the host/user term aggregations.
const aggBucketSize = 10

// Executor runs one structured query against the search backend.
type Executor interface {
	Execute(ctx context.Context, indexPattern string, q *query.StructuredQuery) (*search.Result, error)
}

// Hunter is the hunt orchestrator. The catalog and sigma engine are
// read-only collaborators; every report is built fresh per call.
type Hunter struct {
	executor Executor
	catalog  *catalog.Catalog
	sigma    *sigma.Engine // optional; nil disables enrichment
	verbose  bool
}

// New creates a Hunter. engine may be nil to skip Sigma enrichment.
func New(executor Executor, cat *catalog.Catalog, engine *sigma.Engine, verbose bool) *Hunter {
	return &Hunter{
		executor: executor,
		catalog:  cat,
		sigma:    engine,
		verbose:  verbose,
	}
}

// TechniqueReport is the unified result of one technique hunt.
type TechniqueReport struct {
	ReportID     string            `json:"report_id"`
	Technique    catalog.Technique `json:"technique"`
	TimeRange    string            `json:"time_range"`
	Results      *search.Result    `json:"results"`
	Timeline     map[string]int    `json:"timeline"`
	SigmaMatches []sigma.Match     `json:"sigma_matches,omitempty"`
}

// HuntTechnique runs the canned query for a cataloged technique with
// host/user aggregations and a per-day timeline. An unknown id returns
// catalog.ErrTechniqueNotFound; executor failures are returned as errors
// for the caller to report.
func (h *Hunter) HuntTechnique(ctx context.Context, id, timeRange string) (*TechniqueReport, error) {
	tech, err := h.catalog.Lookup(id)
	if err != nil {
		return nil, err
	}

	q := query.Build(tech.Query, timeRange, defaultTimeRangeDuration, query.SizeTechnique)
	q.Aggs = map[string]query.TermsAgg{
		"hosts": {Field: "host.name.keyword", Size: aggBucketSize},
		"users": {Field: "user.name.keyword", Size: aggBucketSize},
	}

	if h.verbose {
		fmt.Fprintf(os.Stderr, "[hunt] technique %s (%s), range %s\n", id, tech.Name, timeRange)
	}

	result, err := h.executor.Execute(ctx, search.DefaultIndexPattern, q)
	if err != nil {
		return nil, fmt.Errorf("hunt %s: %w", id, err)
	}

	report := &TechniqueReport{
		ReportID:  uuid.NewString(),
		Technique: tech,
		TimeRange: query.NormalizeToken(timeRange, DefaultTimeRange),
		Results:   result,
		Timeline:  Timeline(result.Hits),
	}
	if h.sigma != nil {
		report.SigmaMatches = h.sigma.MatchHits(ctx, result.Hits)
	}
	return report, nil
}

// IOCResult is the per-indicator outcome of an IOC hunt. Either the match
// data or Error is populated, never both.
type IOCResult struct {
	Indicator string       `json:"indicator"`
	Kind      ioc.Kind     `json:"kind,omitempty"`
	Matches   int64        `json:"matches"`
	Hits      []search.Hit `json:"hits,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// HuntIOCs classifies and hunts each indicator independently. A failing
// indicator is recorded with its error and the loop continues; one bad
// indicator never drops the others. Results preserve input order.
func (h *Hunter) HuntIOCs(ctx context.Context, indicators []string, timeRange string) []IOCResult {
	results := make([]IOCResult, 0, len(indicators))

	for _, raw := range indicators {
		kind := ioc.Classify(raw)
		clause := query.IOCClause(raw, kind)
		q := query.Build(clause, timeRange, defaultTimeRangeDuration, query.SizeLogSearch)

		if h.verbose {
			fmt.Fprintf(os.Stderr, "[hunt] ioc %q classified as %s\n", raw, kind)
		}

		res, err := h.executor.Execute(ctx, search.DefaultIndexPattern, q)
		if err != nil {
			results = append(results, IOCResult{Indicator: raw, Kind: kind, Error: err.Error()})
			continue
		}

		hits := res.Hits
		if len(hits) > sampleHitCap {
			hits = hits[:sampleHitCap]
		}
		results = append(results, IOCResult{
			Indicator: raw,
			Kind:      kind,
			Matches:   res.Total,
			Hits:      hits,
		})
	}
	return results
}

// Timeline groups hits into UTC calendar-day buckets keyed YYYY-MM-DD.
// Hits without a usable timestamp are skipped.
func Timeline(hits []search.Hit) map[string]int {
	timeline := make(map[string]int)
	for _, hit := range hits {
		ts := hit.Timestamp()
		if len(ts) < 10 {
			continue
		}
		timeline[ts[:10]]++
	}
	return timeline
}

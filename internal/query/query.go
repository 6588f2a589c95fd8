// Package query builds structured search-index queries: field disjunctions
// for indicators, canned technique clauses, time windows, sort and
// aggregation directives. Serialization to the executor's wire shape happens
// only in MarshalJSON at the boundary.
package query

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/soclab/hunter/internal/ioc"
)

// Default result sizes per operation.
const (
	SizeLogSearch = 50  // log search and per-IOC hunts
	SizeTechnique = 100 // technique hunts
	SizeAnomaly   = 20  // anomaly sub-hunts
)

// TimestampField is the event time field every query windows on.
const TimestampField = "@timestamp"

// Known time-range tokens mapped to durations.
var tokenDurations = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// Duration resolves a time-range token. Unknown tokens degrade to fallback
// rather than erroring; the callers' defaults differ (1h for log search,
// 24h for hunts).
func Duration(token string, fallback time.Duration) time.Duration {
	if d, ok := tokenDurations[token]; ok {
		return d
	}
	return fallback
}

// Window returns the UTC lower bound for a time-range token.
func Window(token string, fallback time.Duration) time.Time {
	return time.Now().UTC().Add(-Duration(token, fallback))
}

// NormalizeToken returns token if it is a known range, fallback otherwise.
// Used where the token is embedded in a relative range expression.
func NormalizeToken(token, fallback string) string {
	if _, ok := tokenDurations[token]; ok {
		return token
	}
	return fallback
}

// Clause is one boolean sub-query. Concrete clause types marshal to the
// executor's wire representation.
type Clause interface {
	json.Marshaler
}

// QueryString is a free-form query_string clause.
type QueryString struct {
	Query string
}

func (c QueryString) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"query_string": map[string]string{"query": c.Query},
	})
}

// Term is an exact-value term clause.
type Term struct {
	Field string
	Value string
}

func (c Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"term": map[string]string{c.Field: c.Value},
	})
}

// TimeGTE is the time-window lower bound. Value is either an absolute
// RFC 3339 timestamp or a relative expression like "now-24h".
type TimeGTE struct {
	Field string
	Value string
}

func (c TimeGTE) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"range": map[string]any{c.Field: map[string]string{"gte": c.Value}},
	})
}

// BytesGTE is a numeric lower-bound range clause.
type BytesGTE struct {
	Field string
	Value int64
}

func (c BytesGTE) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"range": map[string]any{c.Field: map[string]int64{"gte": c.Value}},
	})
}

// HourRange matches the hour-of-day of the timestamp field. Bound values are
// zero-padded hour strings; either bound may be empty.
type HourRange struct {
	GTE string
	LT  string
}

func (c HourRange) MarshalJSON() ([]byte, error) {
	bounds := map[string]string{"time_zone": "UTC", "format": "hour"}
	if c.GTE != "" {
		bounds["gte"] = c.GTE
	}
	if c.LT != "" {
		bounds["lt"] = c.LT
	}
	return json.Marshal(map[string]any{
		"range": map[string]any{TimestampField: bounds},
	})
}

// SortField is one sort directive.
type SortField struct {
	Field string
	Order string // "asc" or "desc"
}

func (s SortField) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		s.Field: map[string]string{"order": s.Order},
	})
}

// TermsAgg is a terms bucket aggregation.
type TermsAgg struct {
	Field string `json:"field"`
	Size  int    `json:"size"`
}

// StructuredQuery is the builder's internal representation of one search
// request. Built fresh per request, never shared.
type StructuredQuery struct {
	Must   []Clause
	Should []Clause
	Size   int
	Sort   []SortField
	Aggs   map[string]TermsAgg
}

// MarshalJSON emits the executor's bool-query body shape.
func (q *StructuredQuery) MarshalJSON() ([]byte, error) {
	boolBody := map[string]any{"must": q.Must}
	if len(q.Should) > 0 {
		boolBody["should"] = q.Should
	}
	body := map[string]any{
		"query": map[string]any{"bool": boolBody},
		"size":  q.Size,
		"sort":  q.Sort,
	}
	if len(q.Aggs) > 0 {
		aggs := make(map[string]any, len(q.Aggs))
		for name, agg := range q.Aggs {
			aggs[name] = map[string]TermsAgg{"terms": agg}
		}
		body["aggs"] = aggs
	}
	return json.Marshal(body)
}

// IOCClause expands an indicator into its per-kind field disjunction.
// All three hash fields are checked regardless of which hash kind matched:
// the indicator may appear under any of them. Unknown kinds become a quoted
// free-text term.
func IOCClause(value string, kind ioc.Kind) string {
	switch {
	case kind == ioc.KindIP:
		return fmt.Sprintf(`(source.ip:%[1]q OR destination.ip:%[1]q OR client.ip:%[1]q OR server.ip:%[1]q)`, value)
	case kind == ioc.KindDomain:
		return fmt.Sprintf(`(domain:%[1]q OR url.domain:%[1]q OR dns.question.name:%[1]q)`, value)
	case kind.IsHash():
		return fmt.Sprintf(`(file.hash.md5:%[1]q OR file.hash.sha1:%[1]q OR file.hash.sha256:%[1]q)`, value)
	case kind == ioc.KindEmail:
		return fmt.Sprintf(`(email.from.address:%[1]q OR email.to.address:%[1]q OR user.email:%[1]q)`, value)
	case kind == ioc.KindURL:
		return fmt.Sprintf(`(url.original:%[1]q OR url.full:%[1]q)`, value)
	default:
		return fmt.Sprintf("%q", value)
	}
}

// Build assembles a StructuredQuery from a clause string and time-range
// token. Every query carries the time-window lower bound; there is no code
// path that omits it. fallback is the duration used for unknown tokens.
func Build(clause, token string, fallback time.Duration, size int) *StructuredQuery {
	return &StructuredQuery{
		Must: []Clause{
			QueryString{Query: clause},
			TimeGTE{Field: TimestampField, Value: Window(token, fallback).Format(time.RFC3339)},
		},
		Size: size,
		Sort: []SortField{{Field: TimestampField, Order: "desc"}},
	}
}

package search

import (
	"encoding/json"

	"github.com/valyala/fastjson"
)

// Result is one executed search: ranked hits, a total count, and optional
// aggregation buckets. Results are owned by the request that ran them and
// are never cached.
type Result struct {
	Total        int64               `json:"total"`
	Hits         []Hit               `json:"hits"`
	Aggregations map[string][]Bucket `json:"aggregations,omitempty"`
}

// Hit is a single ranked document. Source is the raw document JSON; typed
// field access goes through the fastjson accessors below because log
// documents carry no fixed schema.
type Hit struct {
	Index  string          `json:"index"`
	ID     string          `json:"id"`
	Source json.RawMessage `json:"source"`
}

// Bucket is one terms-aggregation bucket.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int64  `json:"doc_count"`
}

var parserPool fastjson.ParserPool

// Field returns the string value at the given path in the hit source, or ""
// if absent or not a string.
func (h Hit) Field(path ...string) string {
	p := parserPool.Get()
	defer parserPool.Put(p)
	v, err := p.ParseBytes(h.Source)
	if err != nil {
		return ""
	}
	return string(v.GetStringBytes(path...))
}

// Int returns the integer value at the given path, or 0.
func (h Hit) Int(path ...string) int64 {
	p := parserPool.Get()
	defer parserPool.Put(p)
	v, err := p.ParseBytes(h.Source)
	if err != nil {
		return 0
	}
	return v.GetInt64(path...)
}

// Timestamp returns the hit's @timestamp field, or "" when absent.
func (h Hit) Timestamp() string {
	return h.Field("@timestamp")
}

// Message returns the hit's log message, falling back from message to
// event.original to a fixed placeholder.
func (h Hit) Message() string {
	if m := h.Field("message"); m != "" {
		return m
	}
	if m := h.Field("event", "original"); m != "" {
		return m
	}
	return "No message"
}

// SourceMap decodes the hit source into a generic event map for rule
// evaluation. Returns nil on malformed documents.
func (h Hit) SourceMap() map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(h.Source, &m); err != nil {
		return nil
	}
	return m
}

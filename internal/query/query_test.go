package query

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/soclab/hunter/internal/ioc"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		token    string
		fallback time.Duration
		want     time.Duration
	}{
		{"1h", 24 * time.Hour, time.Hour},
		{"24h", time.Hour, 24 * time.Hour},
		{"7d", time.Hour, 7 * 24 * time.Hour},
		{"banana", 24 * time.Hour, 24 * time.Hour},
		{"", time.Hour, time.Hour},
	}
	for _, tt := range tests {
		if got := Duration(tt.token, tt.fallback); got != tt.want {
			t.Errorf("Duration(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestWindow(t *testing.T) {
	before := time.Now().UTC().Add(-time.Hour)
	got := Window("1h", 24*time.Hour)
	after := time.Now().UTC().Add(-time.Hour)
	if got.Before(before) || got.After(after) {
		t.Errorf("Window(1h) = %v, outside [%v, %v]", got, before, after)
	}
}

func TestNormalizeToken(t *testing.T) {
	if got := NormalizeToken("7d", "24h"); got != "7d" {
		t.Errorf("NormalizeToken(7d) = %q", got)
	}
	if got := NormalizeToken("banana", "24h"); got != "24h" {
		t.Errorf("NormalizeToken(banana) = %q, want 24h fallback", got)
	}
}

func TestIOCClause_IP(t *testing.T) {
	clause := IOCClause("1.2.3.4", ioc.KindIP)
	for _, field := range []string{"source.ip", "destination.ip", "client.ip", "server.ip"} {
		if !strings.Contains(clause, field+`:"1.2.3.4"`) {
			t.Errorf("ip clause missing %s binding: %s", field, clause)
		}
	}
	if strings.Count(clause, " OR ") != 3 {
		t.Errorf("ip clause should OR-join four fields: %s", clause)
	}
	if !strings.HasPrefix(clause, "(") || !strings.HasSuffix(clause, ")") {
		t.Errorf("ip clause should be parenthesized: %s", clause)
	}
}

func TestIOCClause_Hash(t *testing.T) {
	// All three hash fields regardless of which hash kind matched.
	for _, kind := range []ioc.Kind{ioc.KindMD5, ioc.KindSHA1, ioc.KindSHA256} {
		clause := IOCClause("5d41402abc4b2a76b9719d911017c592", kind)
		for _, field := range []string{"file.hash.md5", "file.hash.sha1", "file.hash.sha256"} {
			if !strings.Contains(clause, field) {
				t.Errorf("%s clause missing %s: %s", kind, field, clause)
			}
		}
	}
}

func TestIOCClause_Domain(t *testing.T) {
	clause := IOCClause("evil.example.com", ioc.KindDomain)
	for _, field := range []string{"domain", "url.domain", "dns.question.name"} {
		if !strings.Contains(clause, field+`:"evil.example.com"`) {
			t.Errorf("domain clause missing %s: %s", field, clause)
		}
	}
}

func TestIOCClause_Email(t *testing.T) {
	clause := IOCClause("a@example.com", ioc.KindEmail)
	for _, field := range []string{"email.from.address", "email.to.address", "user.email"} {
		if !strings.Contains(clause, field) {
			t.Errorf("email clause missing %s: %s", field, clause)
		}
	}
}

func TestIOCClause_URL(t *testing.T) {
	clause := IOCClause("http://x.com/a", ioc.KindURL)
	if !strings.Contains(clause, "url.original") || !strings.Contains(clause, "url.full") {
		t.Errorf("url clause = %s", clause)
	}
}

func TestIOCClause_Unknown(t *testing.T) {
	clause := IOCClause("not-an-ioc", ioc.KindUnknown)
	if clause != `"not-an-ioc"` {
		t.Errorf("unknown kind should be a quoted bare term, got %s", clause)
	}
}

func TestBuild_AlwaysHasTimeWindow(t *testing.T) {
	q := Build("event.category:authentication", "banana", 24*time.Hour, SizeLogSearch)
	if len(q.Must) != 2 {
		t.Fatalf("must clause count = %d, want 2", len(q.Must))
	}
	rangeClause, ok := q.Must[1].(TimeGTE)
	if !ok {
		t.Fatalf("second must clause is %T, want TimeGTE", q.Must[1])
	}
	if rangeClause.Field != TimestampField {
		t.Errorf("range field = %q", rangeClause.Field)
	}
	if _, err := time.Parse(time.RFC3339, rangeClause.Value); err != nil {
		t.Errorf("gte %q is not RFC 3339: %v", rangeClause.Value, err)
	}
}

func TestStructuredQuery_MarshalJSON(t *testing.T) {
	q := Build("process.name:cmd.exe", "24h", 24*time.Hour, SizeTechnique)
	q.Aggs = map[string]TermsAgg{
		"hosts": {Field: "host.name.keyword", Size: 10},
	}

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("round-trip: %v", err)
	}
	if body["size"] != float64(100) {
		t.Errorf("size = %v, want 100", body["size"])
	}
	boolQ := body["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQ["must"].([]any)
	if len(must) != 2 {
		t.Fatalf("must count = %d", len(must))
	}
	if _, ok := must[0].(map[string]any)["query_string"]; !ok {
		t.Error("first must clause should be query_string")
	}
	if _, ok := must[1].(map[string]any)["range"]; !ok {
		t.Error("second must clause should be range")
	}
	if _, ok := boolQ["should"]; ok {
		t.Error("empty should clauses must be omitted")
	}
	aggs := body["aggs"].(map[string]any)
	terms := aggs["hosts"].(map[string]any)["terms"].(map[string]any)
	if terms["field"] != "host.name.keyword" || terms["size"] != float64(10) {
		t.Errorf("hosts agg = %v", terms)
	}
}

func TestClauseMarshal(t *testing.T) {
	tests := []struct {
		clause Clause
		want   string
	}{
		{Term{Field: "event.category", Value: "authentication"}, `{"term":{"event.category":"authentication"}}`},
		{TimeGTE{Field: "@timestamp", Value: "now-24h"}, `{"range":{"@timestamp":{"gte":"now-24h"}}}`},
		{BytesGTE{Field: "network.bytes", Value: 10485760}, `{"range":{"network.bytes":{"gte":10485760}}}`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.clause)
		if err != nil {
			t.Fatalf("marshal %T: %v", tt.clause, err)
		}
		if string(data) != tt.want {
			t.Errorf("%T = %s, want %s", tt.clause, data, tt.want)
		}
	}
}

func TestHourRangeMarshal(t *testing.T) {
	data, err := json.Marshal(HourRange{GTE: "22"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]map[string]map[string]string
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("round-trip: %v", err)
	}
	bounds := body["range"]["@timestamp"]
	if bounds["gte"] != "22" || bounds["time_zone"] != "UTC" || bounds["format"] != "hour" {
		t.Errorf("hour range bounds = %v", bounds)
	}
	if _, ok := bounds["lt"]; ok {
		t.Error("empty lt bound should be omitted")
	}
}

func TestSortFieldMarshal(t *testing.T) {
	data, err := json.Marshal(SortField{Field: "network.bytes", Order: "desc"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"network.bytes":{"order":"desc"}}` {
		t.Errorf("sort = %s", data)
	}
}

package hunt

import (
	"context"
	"sync"

	"github.com/soclab/hunter/internal/query"
	"github.com/soclab/hunter/internal/search"
)

// exfilByteFloor is the outbound transfer size (10 MiB) above which a flow
// is considered a potential exfiltration event.
const exfilByteFloor = 10485760

// AnomalyResult is one sub-hunt outcome: a result or an error, never both.
type AnomalyResult struct {
	Result *search.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// anomalyHunts are the fixed behavioral sub-hunts, each building its own
// structured query for the (already normalized) time-range token.
var anomalyHunts = map[string]func(token string) *query.StructuredQuery{
	// Successful authentications outside 06:00-22:00 UTC.
	"unusual_logins": func(token string) *query.StructuredQuery {
		return &query.StructuredQuery{
			Must: []query.Clause{
				query.Term{Field: "event.category", Value: "authentication"},
				query.Term{Field: "event.outcome", Value: "success"},
				query.TimeGTE{Field: query.TimestampField, Value: "now-" + token},
			},
			Should: []query.Clause{
				query.HourRange{GTE: "22"},
				query.HourRange{LT: "06"},
			},
			Size: query.SizeAnomaly,
			Sort: []query.SortField{{Field: query.TimestampField, Order: "desc"}},
		}
	},
	// Commands associated with privilege changes.
	"privilege_escalation": func(token string) *query.StructuredQuery {
		return &query.StructuredQuery{
			Must: []query.Clause{
				query.QueryString{Query: `process.args:("runas" OR "sudo" OR "su" OR "net user" OR "net group")`},
				query.TimeGTE{Field: query.TimestampField, Value: "now-" + token},
			},
			Size: query.SizeAnomaly,
			Sort: []query.SortField{{Field: query.TimestampField, Order: "desc"}},
		}
	},
	// Large outbound transfers, biggest first.
	"data_exfiltration": func(token string) *query.StructuredQuery {
		return &query.StructuredQuery{
			Must: []query.Clause{
				query.BytesGTE{Field: "network.bytes", Value: exfilByteFloor},
				query.Term{Field: "network.direction", Value: "outbound"},
				query.TimeGTE{Field: query.TimestampField, Value: "now-" + token},
			},
			Size: query.SizeAnomaly,
			Sort: []query.SortField{{Field: "network.bytes", Order: "desc"}},
		}
	},
	// Remote-execution and pivoting tools.
	"lateral_movement": func(token string) *query.StructuredQuery {
		return &query.StructuredQuery{
			Must: []query.Clause{
				query.QueryString{Query: `process.name:("net.exe" OR "psexec.exe" OR "wmic.exe" OR "ssh.exe")`},
				query.TimeGTE{Field: query.TimestampField, Value: "now-" + token},
			},
			Size: query.SizeAnomaly,
			Sort: []query.SortField{{Field: query.TimestampField, Order: "desc"}},
		}
	},
}

// HuntAnomalies runs the four canned behavioral sub-hunts concurrently.
// Each is independently fallible and reported under its own key; an unknown
// time-range token degrades to the 24-hour default.
func (h *Hunter) HuntAnomalies(ctx context.Context, timeRange string) map[string]AnomalyResult {
	token := query.NormalizeToken(timeRange, DefaultTimeRange)

	out := make(map[string]AnomalyResult, len(anomalyHunts))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, build := range anomalyHunts {
		wg.Add(1)
		go func(name string, q *query.StructuredQuery) {
			defer wg.Done()

			res, err := h.executor.Execute(ctx, search.DefaultIndexPattern, q)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out[name] = AnomalyResult{Error: err.Error()}
				return
			}
			out[name] = AnomalyResult{Result: res}
		}(name, build(token))
	}

	wg.Wait()
	return out
}

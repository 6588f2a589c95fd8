// Package sigma evaluates Sigma detection rules against search hits
// returned by a hunt, annotating reports with rule-level context.
package sigma

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	sigmalib "github.com/bradleyjkemp/sigma-go"
	"github.com/bradleyjkemp/sigma-go/evaluator"

	"github.com/soclab/hunter/internal/search"
)

//go:embed rules
var embeddedRules embed.FS

// Match records a Sigma rule firing on one hunt hit.
type Match struct {
	HitID     string `json:"hit_id"`
	RuleTitle string `json:"rule_title"`
	RuleID    string `json:"rule_id,omitempty"`
	Level     string `json:"level"` // informational | low | medium | high | critical
}

// Engine holds compiled rule evaluators. Read-only after construction.
type Engine struct {
	rules []evaluator.RuleEvaluator
}

// NewDefault creates an Engine loaded with the built-in embedded rules.
func NewDefault() (*Engine, error) {
	sub, err := fs.Sub(embeddedRules, "rules")
	if err != nil {
		return nil, err
	}
	return New(sub)
}

// New creates an Engine by loading every .yml/.yaml rule from the given FS.
func New(rulesFS fs.FS) (*Engine, error) {
	var rules []evaluator.RuleEvaluator

	err := fs.WalkDir(rulesFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		data, err := fs.ReadFile(rulesFS, path)
		if err != nil {
			return err
		}
		rule, err := sigmalib.ParseRule(data)
		if err != nil {
			return fmt.Errorf("parse rule %s: %w", path, err)
		}
		rules = append(rules, *evaluator.ForRule(rule))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Engine{rules: rules}, nil
}

// MatchHits evaluates every rule against each hit's source document.
// Rules carrying a logsource.category only apply to hits whose
// event.category field matches. Failures on individual hits or rules are
// skipped; enrichment never blocks a hunt report.
func (e *Engine) MatchHits(ctx context.Context, hits []search.Hit) []Match {
	var matches []Match
	for _, hit := range hits {
		src := hit.SourceMap()
		if src == nil {
			continue
		}
		event := flatten(src)

		for _, ev := range e.rules {
			cat := ev.Rule.Logsource.Category
			if cat != "" {
				if hitCat, _ := event["event.category"].(string); hitCat != cat {
					continue
				}
			}
			res, err := ev.Matches(ctx, event)
			if err != nil || !res.Match {
				continue
			}
			matches = append(matches, Match{
				HitID:     hit.ID,
				RuleTitle: ev.Rule.Title,
				RuleID:    ev.Rule.ID,
				Level:     ev.Rule.Level,
			})
		}
	}
	return matches
}

// flatten converts nested source documents into dot-keyed events so rule
// field names like process.name address the nested value directly.
func flatten(src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(src))
	flattenInto(out, "", src)
	return out
}

func flattenInto(out map[string]interface{}, prefix string, src map[string]interface{}) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}

package summary

import (
	"fmt"
	"strings"
	"time"

	"tally/internal/core"
)

// CustomResult is the evaluation of one custom summary definition.
type CustomResult struct {
	Definition core.CustomSummaryDefinition
	Count      int
	Net        float64
	Hours      float64   // only when Definition.TrackTime
	Sessions   []Session // only when Definition.TrackTime
}

// containsAny reports whether s contains one of subs, ignoring case. An empty
// subs matches everything.
func containsAny(s string, subs []string) bool {
	if len(subs) == 0 {
		return true
	}
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

type matcher struct {
	reasons    []string
	froms      []string
	start, end time.Time
}

func (m matcher) bounded() bool {
	return !m.start.IsZero() || !m.end.IsZero()
}

func (m matcher) match(tx core.Transaction) bool {
	if !containsAny(tx.Reason, m.reasons) || !containsAny(tx.From, m.froms) {
		return false
	}
	if !m.bounded() {
		return true
	}
	t, ok := tx.Time()
	return ok && withinBounds(t, m.start, m.end)
}

// times returns the parsed dates of matching transactions. Transactions
// without a parseable date are left out.
func (m matcher) times(txs []core.Transaction) []time.Time {
	var out []time.Time
	for _, tx := range txs {
		if !m.match(tx) {
			continue
		}
		if t, ok := tx.Time(); ok {
			out = append(out, t)
		}
	}
	return out
}

// Evaluate applies def to txs. A transaction matches when its reason contains
// one of ReasonMatches, its sender one of FromMatches and its date lies within
// the definition's bounds. Net is the signed sum of matching amounts. When
// TrackTime is set, the dates of transactions matching TimeMatches instead of
// ReasonMatches are clustered into sessions.
func Evaluate(txs []core.Transaction, def core.CustomSummaryDefinition) (CustomResult, error) {
	start, end, err := def.Bounds()
	if err != nil {
		return CustomResult{}, fmt.Errorf("definition %q: %w", def.Name, err)
	}
	m := matcher{reasons: def.ReasonMatches, froms: def.FromMatches, start: start, end: end}

	res := CustomResult{Definition: def}
	var net accumulator
	for _, tx := range txs {
		if m.match(tx) {
			res.Count++
			net.add(tx.Amount)
		}
	}
	res.Net = net.value()

	if def.TrackTime {
		tm := m
		tm.reasons = def.TimeMatches()
		res.Sessions = ClusterSessions(tm.times(txs))
		res.Hours = TotalHours(res.Sessions)
	}
	return res, nil
}

// EvaluateAll evaluates every definition in order.
func EvaluateAll(txs []core.Transaction, defs []core.CustomSummaryDefinition) ([]CustomResult, error) {
	out := make([]CustomResult, 0, len(defs))
	for _, def := range defs {
		res, err := Evaluate(txs, def)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// EntityHours estimates hours from transactions whose sender contains entity.
func EntityHours(txs []core.Transaction, entity string) float64 {
	m := matcher{froms: []string{entity}}
	return WorkedHours(m.times(txs))
}

// ReasonHours estimates hours from transactions whose reason contains reason.
func ReasonHours(txs []core.Transaction, reason string) float64 {
	m := matcher{reasons: []string{reason}}
	return WorkedHours(m.times(txs))
}

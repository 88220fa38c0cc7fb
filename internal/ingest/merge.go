// Package ingest decides how freshly fetched bank text is combined with the
// text already stored for a profile.
package ingest

import (
	"sort"
	"strings"
	"time"

	"tally/internal/banking"
	"tally/internal/core"
	"tally/internal/table"
)

// Mode says how the stored text was produced.
type Mode string

const (
	ModeReplaced Mode = "replaced"
	ModeMerged   Mode = "merged"
)

// Result is the outcome of MergeOrReplace.
type Result struct {
	Text  string
	Mode  Mode
	Added int
}

// MergeOrReplace combines incoming with existing.
//
// When existing is blank the incoming text is stored verbatim. Otherwise only
// incoming transactions dated strictly after the latest parseable date in
// existing are appended, oldest first, under the existing headers. Incoming
// rows whose date does not parse are never appended. When nothing is new the
// existing text is returned unchanged.
func MergeOrReplace(existing, incoming string) Result {
	if strings.TrimSpace(existing) == "" {
		return Result{Text: incoming, Mode: ModeReplaced}
	}

	current, currentTxs := banking.Parse(existing)
	_, incomingTxs := banking.Parse(incoming)

	fresh := Dated(incomingTxs)
	if cutoff, found := Cutoff(currentTxs); found {
		fresh = After(incomingTxs, cutoff)
	}
	if len(fresh) == 0 {
		return Result{Text: existing, Mode: ModeMerged}
	}

	rows := append(append([]table.Row{}, current.Rows...), banking.Rows(fresh)...)
	return Result{
		Text:  table.Export(current.WithRows(rows)),
		Mode:  ModeMerged,
		Added: len(fresh),
	}
}

// Cutoff returns the latest parseable date in txs. found is false when no
// date parses.
func Cutoff(txs []core.Transaction) (cutoff time.Time, found bool) {
	for _, tx := range txs {
		if t, ok := tx.Time(); ok && (!found || t.After(cutoff)) {
			cutoff = t
			found = true
		}
	}
	return cutoff, found
}

// After returns the transactions dated strictly after cutoff, sorted by date.
func After(txs []core.Transaction, cutoff time.Time) []core.Transaction {
	return sortByDate(txs, func(t time.Time) bool { return t.After(cutoff) })
}

// Dated returns every transaction with a parseable date, sorted by date.
func Dated(txs []core.Transaction) []core.Transaction {
	return sortByDate(txs, func(time.Time) bool { return true })
}

func sortByDate(txs []core.Transaction, keep func(time.Time) bool) []core.Transaction {
	type dated struct {
		tx core.Transaction
		at time.Time
	}
	var sel []dated
	for _, tx := range txs {
		t, ok := tx.Time()
		if !ok || !keep(t) {
			continue
		}
		sel = append(sel, dated{tx: tx, at: t})
	}
	sort.SliceStable(sel, func(i, j int) bool { return sel[i].at.Before(sel[j].at) })

	out := make([]core.Transaction, len(sel))
	for i, d := range sel {
		out[i] = d.tx
	}
	return out
}

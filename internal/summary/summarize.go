// Package summary aggregates transactions: whole-table totals, monthly
// buckets, filters, custom summaries and session-based hour estimates.
package summary

import (
	"math"
	"sort"
	"time"

	"tally/internal/core"
)

// IsDeposit reports whether tx counts as a deposit in totals and monthly
// buckets. Only strictly positive amounts do; zero and NaN amounts are
// withdrawals.
func IsDeposit(tx core.Transaction) bool {
	return tx.Amount > 0
}

// Summarize computes a TransactionTable snapshot of txs. The input slice is
// copied, never modified.
func Summarize(txs []core.Transaction) core.TransactionTable {
	var deposits, withdrawals accumulator
	for _, tx := range txs {
		if IsDeposit(tx) {
			deposits.add(tx.Amount)
		} else {
			withdrawals.add(math.Abs(tx.Amount))
		}
	}

	totals := core.Totals{
		Deposits:    deposits.value(),
		Withdrawals: withdrawals.value(),
	}
	totals.NetChange = totals.Deposits - totals.Withdrawals

	out := core.TransactionTable{
		Transactions: append([]core.Transaction{}, txs...),
		TotalCount:   len(txs),
		TotalAmount:  totals.NetChange,
		DateRange:    dateRange(txs),
		Summary:      totals,
	}
	if len(txs) > 0 {
		out.AverageAmount = out.TotalAmount / float64(len(txs))
	}
	return out
}

// dateRange returns the verbatim dates of the earliest and latest
// transactions whose date parses.
func dateRange(txs []core.Transaction) core.DateRange {
	var (
		r           core.DateRange
		first, last time.Time
		found       bool
	)
	for _, tx := range txs {
		t, ok := tx.Time()
		if !ok {
			continue
		}
		if !found || t.Before(first) {
			first = t
			r.Start = tx.DateText
		}
		if !found || t.After(last) {
			last = t
			r.End = tx.DateText
		}
		found = true
	}
	return r
}

// MonthlyRollup groups transactions with a parseable date by year and month,
// oldest first.
func MonthlyRollup(txs []core.Transaction) []core.MonthBucket {
	type acc struct {
		year, month           int
		count                 int
		deposits, withdrawals accumulator
	}
	buckets := map[int]*acc{}
	for _, tx := range txs {
		t, ok := tx.Time()
		if !ok {
			continue
		}
		key := t.Year()*100 + int(t.Month())
		b, exists := buckets[key]
		if !exists {
			b = &acc{year: t.Year(), month: int(t.Month())}
			buckets[key] = b
		}
		b.count++
		if IsDeposit(tx) {
			b.deposits.add(tx.Amount)
		} else {
			b.withdrawals.add(math.Abs(tx.Amount))
		}
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]core.MonthBucket, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		d, w := b.deposits.value(), b.withdrawals.value()
		out = append(out, core.MonthBucket{
			Year:        b.year,
			Month:       b.month,
			Count:       b.count,
			Total:       d - w,
			Deposits:    d,
			Withdrawals: w,
		})
	}
	return out
}

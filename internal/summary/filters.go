package summary

import (
	"math"
	"sort"
	"strings"
	"time"

	"tally/internal/core"
)

// TxType selects deposits or withdrawals.
type TxType string

const (
	TypeAll         TxType = ""
	TypeDeposits    TxType = "deposits"
	TypeWithdrawals TxType = "withdrawals"
)

// IsValid reports whether t is a known type.
func (t TxType) IsValid() bool {
	switch t {
	case TypeAll, TypeDeposits, TypeWithdrawals:
		return true
	default:
		return false
	}
}

// SortField selects the ordering of filtered transactions.
type SortField string

const (
	SortNone   SortField = ""
	SortDate   SortField = "date"
	SortAmount SortField = "amount"
)

// IsValid reports whether f is a known sort field.
func (f SortField) IsValid() bool {
	switch f {
	case SortNone, SortDate, SortAmount:
		return true
	default:
		return false
	}
}

// Query combines the transaction filters. Zero values disable a filter.
type Query struct {
	Start      time.Time
	End        time.Time
	Entity     string
	Type       TxType
	MinAmount  *float64
	MaxAmount  *float64
	SortBy     SortField
	Descending bool
}

// Apply runs every enabled filter of q over txs and then sorts. The result
// never shares its backing array with txs, also when nothing is enabled.
func (q Query) Apply(txs []core.Transaction) []core.Transaction {
	out := append([]core.Transaction{}, txs...)
	if !q.Start.IsZero() || !q.End.IsZero() {
		out = FilterByDateRange(out, q.Start, q.End)
	}
	if q.Entity != "" {
		out = FilterByEntity(out, q.Entity)
	}
	if q.Type != TypeAll {
		out = FilterByType(out, q.Type)
	}
	if q.MinAmount != nil || q.MaxAmount != nil {
		lo, hi := math.Inf(-1), math.Inf(1)
		if q.MinAmount != nil {
			lo = *q.MinAmount
		}
		if q.MaxAmount != nil {
			hi = *q.MaxAmount
		}
		out = FilterByAmountRange(out, lo, hi)
	}
	switch q.SortBy {
	case SortDate:
		out = SortByDate(out, q.Descending)
	case SortAmount:
		out = SortByAmount(out, q.Descending)
	}
	return out
}

func filter(txs []core.Transaction, keep func(core.Transaction) bool) []core.Transaction {
	out := []core.Transaction{}
	for _, tx := range txs {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterByDateRange keeps transactions whose parsed date lies within
// [start, end]. A zero bound is open. Transactions without a parseable date
// are dropped.
func FilterByDateRange(txs []core.Transaction, start, end time.Time) []core.Transaction {
	return filter(txs, func(tx core.Transaction) bool {
		t, ok := tx.Time()
		return ok && withinBounds(t, start, end)
	})
}

func withinBounds(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

// FilterByEntity keeps transactions whose From or Reason contains query,
// ignoring case.
func FilterByEntity(txs []core.Transaction, query string) []core.Transaction {
	needle := strings.ToLower(query)
	return filter(txs, func(tx core.Transaction) bool {
		return strings.Contains(strings.ToLower(tx.From), needle) ||
			strings.Contains(strings.ToLower(tx.Reason), needle)
	})
}

// FilterByType keeps strictly positive amounts for deposits and strictly
// negative ones for withdrawals. Zero amounts match neither, unlike the
// deposit/withdrawal split of Summarize.
func FilterByType(txs []core.Transaction, typ TxType) []core.Transaction {
	switch typ {
	case TypeDeposits:
		return filter(txs, func(tx core.Transaction) bool { return tx.Amount > 0 })
	case TypeWithdrawals:
		return filter(txs, func(tx core.Transaction) bool { return tx.Amount < 0 })
	default:
		return filter(txs, func(core.Transaction) bool { return true })
	}
}

// FilterByAmountRange keeps amounts within [min, max]. NaN amounts never match.
func FilterByAmountRange(txs []core.Transaction, min, max float64) []core.Transaction {
	return filter(txs, func(tx core.Transaction) bool {
		return tx.Amount >= min && tx.Amount <= max
	})
}

// SortByDate returns txs ordered by date. Unparseable dates sort at the Unix epoch.
func SortByDate(txs []core.Transaction, descending bool) []core.Transaction {
	out := append([]core.Transaction{}, txs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := core.SortTime(out[i].DateText), core.SortTime(out[j].DateText)
		if descending {
			return a.After(b)
		}
		return a.Before(b)
	})
	return out
}

// SortByAmount returns txs ordered by amount with NaN amounts last.
func SortByAmount(txs []core.Transaction, descending bool) []core.Transaction {
	out := append([]core.Transaction{}, txs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Amount, out[j].Amount
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case descending:
			return a > b
		default:
			return a < b
		}
	})
	return out
}

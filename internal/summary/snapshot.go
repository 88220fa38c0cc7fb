package summary

import (
	"tally/internal/banking"
	"tally/internal/core"
)

// Snapshot is everything derived from one raw text. It is rebuilt, never
// patched, when the text changes.
type Snapshot struct {
	Headers []string
	Table   core.TransactionTable
	Months  []core.MonthBucket
}

// Build parses text and computes the table summary and monthly rollup.
func Build(text string) Snapshot {
	tbl, txs := banking.Parse(text)
	return Snapshot{
		Headers: tbl.Headers,
		Table:   Summarize(txs),
		Months:  MonthlyRollup(txs),
	}
}

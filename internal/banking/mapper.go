// Package banking maps generic tables onto typed bank transactions. It
// composes the table package rather than extending it.
package banking

import (
	"tally/internal/core"
	"tally/internal/table"
)

// Column names of the canonical bank export.
const (
	ColumnID      = table.FirstColumnName
	ColumnFrom    = "From"
	ColumnRouting = "Routing"
	ColumnReason  = "Reason"
	ColumnAmount  = "Amount"
	ColumnBalance = "Balance"
	ColumnDate    = "Date"
)

// CanonicalHeaders is the header row of a bank export before blank-header recovery.
var CanonicalHeaders = []string{"", ColumnFrom, ColumnRouting, ColumnReason, ColumnAmount, ColumnBalance, ColumnDate}

// ToTransactions re-keys every row of t into a Transaction. The row itself is
// kept as the transaction's SourceRow.
func ToTransactions(t table.Table) []core.Transaction {
	out := make([]core.Transaction, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, FromRow(r))
	}
	return out
}

// FromRow maps a single row.
func FromRow(r table.Row) core.Transaction {
	id := r[ColumnID]
	if id == "" {
		id = r[""]
	}
	return core.Transaction{
		ID:          id,
		From:        r[ColumnFrom],
		RoutingCode: r[ColumnRouting],
		Reason:      r[ColumnReason],
		Amount:      core.ParseAmount(r[ColumnAmount]),
		BalanceText: r[ColumnBalance],
		DateText:    r[ColumnDate],
		SourceRow:   r,
	}
}

// Parse tokenizes text and maps it in one step. The generic table is returned
// too so callers can re-export with the original columns.
func Parse(text string) (table.Table, []core.Transaction) {
	t := table.Parse(text)
	return t, ToTransactions(t)
}

// Rows returns the source rows of txs in order.
func Rows(txs []core.Transaction) []table.Row {
	rows := make([]table.Row, len(txs))
	for i, tx := range txs {
		rows[i] = table.Row(tx.SourceRow)
	}
	return rows
}

// Export renders txs through their source rows under headers.
func Export(headers []string, txs []core.Transaction) string {
	return table.Export(table.Table{Headers: headers}.WithRows(Rows(txs)))
}

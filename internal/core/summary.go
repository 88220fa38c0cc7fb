package core

// DateRange holds the verbatim date strings of the earliest and latest
// transactions, "" when there are none.
type DateRange struct {
	Start string
	End   string
}

// Totals splits a set of transactions into deposits and withdrawals.
// Deposits - Withdrawals == NetChange.
type Totals struct {
	Deposits    float64
	Withdrawals float64
	NetChange   float64
}

// TransactionTable is an immutable snapshot of a transaction list and its
// aggregates. Recompute it when the underlying text changes.
type TransactionTable struct {
	Transactions  []Transaction
	TotalCount    int
	TotalAmount   float64
	AverageAmount float64
	DateRange     DateRange
	Summary       Totals
}

// MonthBucket aggregates transactions for a specific year+month.
type MonthBucket struct {
	Year        int
	Month       int // 1-12
	Count       int
	Total       float64
	Deposits    float64
	Withdrawals float64
}

package summary

import (
	"math"
	"testing"

	"tally/internal/core"
)

func tx(amount float64, date, from, reason string) core.Transaction {
	return core.Transaction{Amount: amount, DateText: date, From: from, Reason: reason}
}

func TestSummarizeTotals(t *testing.T) {
	txs := []core.Transaction{
		tx(500, "07/Aug/2025 10:00", "ACME", "Invoice"),
		tx(-200, "05/Aug/2025 09:00", "Rent Co", "Rent"),
		tx(0, "09/Aug/2025 12:00", "Bank", "Fee waived"),
		tx(0.1, "08/Aug/2025 12:00", "Bank", "Interest"),
		tx(0.2, "08/Aug/2025 12:00", "Bank", "Interest"),
	}
	got := Summarize(txs)
	if got.TotalCount != 5 {
		t.Fatalf("count: got %d", got.TotalCount)
	}
	if got.Summary.Deposits != 500.3 {
		t.Fatalf("deposits: got %v", got.Summary.Deposits)
	}
	if got.Summary.Withdrawals != 200 {
		t.Fatalf("withdrawals: got %v", got.Summary.Withdrawals)
	}
	if got.Summary.Deposits-got.Summary.Withdrawals != got.Summary.NetChange {
		t.Fatalf("deposits - withdrawals must equal net change: %+v", got.Summary)
	}
	if got.Summary.NetChange != got.TotalAmount {
		t.Fatalf("net change must equal total amount: %v vs %v", got.Summary.NetChange, got.TotalAmount)
	}
	if got.AverageAmount != got.TotalAmount/5 {
		t.Fatalf("average: got %v", got.AverageAmount)
	}
	if got.DateRange.Start != "05/Aug/2025 09:00" || got.DateRange.End != "09/Aug/2025 12:00" {
		t.Fatalf("date range: got %+v", got.DateRange)
	}
}

// Zero amounts count as withdrawals of zero. This pins the current > 0 rule.
func TestSummarizeZeroAmountIsWithdrawal(t *testing.T) {
	zero := core.ParseAmount("$0")
	got := Summarize([]core.Transaction{tx(zero, "", "", "")})
	if got.Summary.Deposits != 0 || got.Summary.Withdrawals != 0 {
		t.Fatalf("unexpected totals %+v", got.Summary)
	}
	if IsDeposit(tx(zero, "", "", "")) {
		t.Fatalf("$0 must not be a deposit")
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	amounts := []float64{0.1, 0.2, 0.3, -0.7, 1e9, -1e-3, 12.34, -56.78, 0.05}
	forward := make([]core.Transaction, len(amounts))
	backward := make([]core.Transaction, len(amounts))
	for i, a := range amounts {
		forward[i] = tx(a, "", "", "")
		backward[len(amounts)-1-i] = tx(a, "", "", "")
	}
	f, b := Summarize(forward).Summary, Summarize(backward).Summary
	if f != b {
		t.Fatalf("totals depend on order: %+v vs %+v", f, b)
	}
}

func TestSummarizeNaNPropagates(t *testing.T) {
	got := Summarize([]core.Transaction{tx(10, "", "", ""), tx(math.NaN(), "", "", "")})
	if got.Summary.Deposits != 10 {
		t.Fatalf("deposits: got %v", got.Summary.Deposits)
	}
	if !math.IsNaN(got.Summary.Withdrawals) || !math.IsNaN(got.TotalAmount) {
		t.Fatalf("NaN must propagate, got %+v", got.Summary)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	if got.TotalCount != 0 || got.TotalAmount != 0 || got.AverageAmount != 0 {
		t.Fatalf("expected zero table, got %+v", got)
	}
	if got.DateRange != (core.DateRange{}) || got.Summary != (core.Totals{}) {
		t.Fatalf("expected zero range and totals, got %+v", got)
	}
	if got.Transactions == nil {
		t.Fatalf("expected empty, non-nil transactions")
	}
}

func TestSummarizeDateRangeSkipsInvalid(t *testing.T) {
	got := Summarize([]core.Transaction{tx(1, "whenever", "", ""), tx(1, "01/Jan/2025 00:00", "", "")})
	if got.DateRange.Start != "01/Jan/2025 00:00" || got.DateRange.End != "01/Jan/2025 00:00" {
		t.Fatalf("unexpected range %+v", got.DateRange)
	}
}

func TestMonthlyRollup(t *testing.T) {
	txs := []core.Transaction{
		tx(100, "02/Sep/2025 10:00", "", ""),
		tx(-40, "15/Aug/2025 10:00", "", ""),
		tx(0, "16/Aug/2025 10:00", "", ""),
		tx(60, "31/Aug/2025 23:59", "", ""),
		tx(5, "not a date", "", ""),
	}
	got := MonthlyRollup(txs)
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %+v", got)
	}
	aug := got[0]
	if aug.Year != 2025 || aug.Month != 8 || aug.Count != 3 {
		t.Fatalf("unexpected august bucket %+v", aug)
	}
	if aug.Deposits != 60 || aug.Withdrawals != 40 || aug.Total != 20 {
		t.Fatalf("unexpected august totals %+v", aug)
	}
	if got[1].Month != 9 || got[1].Total != 100 {
		t.Fatalf("unexpected september bucket %+v", got[1])
	}
}

func TestBuild(t *testing.T) {
	snap := Build(`"","From","Routing","Reason","Amount","Balance","Date"
"1","ACME","","Invoice","+$500","$500","07/Aug/2025 10:00"
"2","Shop","","Latte","-$4.50","$495.50","07/Sep/2025 10:30"`)
	if snap.Table.TotalCount != 2 || len(snap.Months) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Headers[0] != "TransactionID" {
		t.Fatalf("unexpected headers %v", snap.Headers)
	}
	if snap.Table.TotalAmount != 495.5 {
		t.Fatalf("total: got %v", snap.Table.TotalAmount)
	}
}

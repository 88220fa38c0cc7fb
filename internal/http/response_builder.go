package http

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"tally/internal/core"
	"tally/internal/ingest"
	"tally/internal/services"
	"tally/internal/summary"
)

// Number is a float that encodes NaN and infinities as null.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

type (
	dateRangeResponse struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}

	totalsResponse struct {
		Deposits    Number `json:"deposits"`
		Withdrawals Number `json:"withdrawals"`
		NetChange   Number `json:"netChange"`
	}

	monthResponse struct {
		Year        int    `json:"year"`
		Month       int    `json:"month"`
		Count       int    `json:"count"`
		Total       Number `json:"total"`
		Deposits    Number `json:"deposits"`
		Withdrawals Number `json:"withdrawals"`
	}

	summaryResponse struct {
		Profile       string            `json:"profile"`
		Headers       []string          `json:"headers"`
		TotalCount    int               `json:"totalCount"`
		TotalAmount   Number            `json:"totalAmount"`
		AverageAmount Number            `json:"averageAmount"`
		DateRange     dateRangeResponse `json:"dateRange"`
		Summary       totalsResponse    `json:"summary"`
		Months        []monthResponse   `json:"months"`
	}

	transactionResponse struct {
		ID          string `json:"id"`
		From        string `json:"from"`
		RoutingCode string `json:"routingCode"`
		Reason      string `json:"reason"`
		Amount      Number `json:"amount"`
		Balance     string `json:"balance"`
		Date        string `json:"date"`
	}

	transactionsResponse struct {
		Count        int                   `json:"count"`
		Transactions []transactionResponse `json:"transactions"`
	}

	profileResponse struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Bytes       int       `json:"bytes"`
		Definitions int       `json:"definitions"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	importResponse struct {
		Mode  ingest.Mode `json:"mode"`
		Added int         `json:"added"`
	}

	queuedResponse struct {
		RequestID string `json:"requestId"`
		Status    string `json:"status"`
	}

	sessionResponse struct {
		Start  time.Time `json:"start"`
		End    time.Time `json:"end"`
		Events int       `json:"events"`
	}

	resultResponse struct {
		Definition core.CustomSummaryDefinition `json:"definition"`
		Count      int                          `json:"count"`
		Net        Number                       `json:"net"`
		Hours      *Number                      `json:"hours,omitempty"`
		Sessions   []sessionResponse            `json:"sessions,omitempty"`
	}

	hoursResponse struct {
		Entity      string `json:"entity,omitempty"`
		EntityHours Number `json:"entityHours"`
		Reason      string `json:"reason,omitempty"`
		ReasonHours Number `json:"reasonHours"`
	}

	errorResponse struct {
		Error     string `json:"error"`
		RequestID string `json:"requestId,omitempty"`
	}
)

func newSummaryResponse(profileID string, snap summary.Snapshot) summaryResponse {
	t := snap.Table
	months := make([]monthResponse, len(snap.Months))
	for i, m := range snap.Months {
		months[i] = monthResponse{
			Year:        m.Year,
			Month:       m.Month,
			Count:       m.Count,
			Total:       Number(m.Total),
			Deposits:    Number(m.Deposits),
			Withdrawals: Number(m.Withdrawals),
		}
	}
	headers := snap.Headers
	if headers == nil {
		headers = []string{}
	}
	return summaryResponse{
		Profile:       profileID,
		Headers:       headers,
		TotalCount:    t.TotalCount,
		TotalAmount:   Number(t.TotalAmount),
		AverageAmount: Number(t.AverageAmount),
		DateRange:     dateRangeResponse{Start: t.DateRange.Start, End: t.DateRange.End},
		Summary: totalsResponse{
			Deposits:    Number(t.Summary.Deposits),
			Withdrawals: Number(t.Summary.Withdrawals),
			NetChange:   Number(t.Summary.NetChange),
		},
		Months: months,
	}
}

func newTransactionsResponse(txs []core.Transaction) transactionsResponse {
	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = transactionResponse{
			ID:          tx.ID,
			From:        tx.From,
			RoutingCode: tx.RoutingCode,
			Reason:      tx.Reason,
			Amount:      Number(tx.Amount),
			Balance:     tx.BalanceText,
			Date:        tx.DateText,
		}
	}
	return transactionsResponse{Count: len(out), Transactions: out}
}

func newProfileResponses(list []core.Profile) []profileResponse {
	out := make([]profileResponse, len(list))
	for i, p := range list {
		out[i] = profileResponse{
			ID:          p.ID,
			Name:        p.Name,
			Bytes:       len(p.CSVData),
			Definitions: len(p.CustomSummaries),
			UpdatedAt:   p.UpdatedAt,
		}
	}
	return out
}

func newResultResponses(results []summary.CustomResult) []resultResponse {
	out := make([]resultResponse, len(results))
	for i, r := range results {
		out[i] = resultResponse{
			Definition: r.Definition,
			Count:      r.Count,
			Net:        Number(r.Net),
		}
		if r.Definition.TrackTime {
			h := Number(r.Hours)
			out[i].Hours = &h
			out[i].Sessions = make([]sessionResponse, len(r.Sessions))
			for j, s := range r.Sessions {
				out[i].Sessions[j] = sessionResponse{Start: s.Start, End: s.End, Events: s.Events}
			}
		}
	}
	return out
}

func newHoursResponse(h services.Hours) hoursResponse {
	return hoursResponse{
		Entity:      h.Entity,
		EntityHours: Number(h.EntityHours),
		Reason:      h.Reason,
		ReasonHours: Number(h.ReasonHours),
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

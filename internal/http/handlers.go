package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/amqp"
	"tally/internal/ingest"
	"tally/internal/log"
)

// writeError logs server-side failures and writes a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ctx := r.Context()
	requestID := log.RequestIDFromContext(ctx)
	if status >= http.StatusInternalServerError {
		fields := log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
			WithHTTPResponse(status, 0)
		if id := profileID(r); id != "" {
			fields = fields.WithProfile(id)
		}
		if requestID != "" {
			fields = fields.WithRequestID(requestID)
		}
		s.events.LogError(ctx, "Request failed", err, log.ComponentHTTP, operationFor(r), fields)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: requestID})
}

func operationFor(r *http.Request) string {
	switch r.Method {
	case http.MethodPost:
		if strings.HasSuffix(r.URL.Path, "/import") {
			return log.OpImport
		}
		return log.OpCreate
	case http.MethodPut:
		return log.OpUpdate
	case http.MethodDelete:
		return log.OpDelete
	default:
		return log.OpRead
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that the profile store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	store := "ok"
	if _, err := s.api.Profiles(ctx); err != nil {
		status, code = "not_ready", http.StatusServiceUnavailable
		store = fmt.Sprintf("failed: %v", err)
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": map[string]string{"store": store},
	})
}

// handleMetrics reports request, rate limit and cache counters as plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	cs := s.api.CacheStats()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "tally_http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "tally_http_server_errors_total %d\n", tm.ServerErrors)
	fmt.Fprintf(w, "tally_http_last_latency_microseconds %d\n", tm.LastLatencyUs)
	fmt.Fprintf(w, "tally_ratelimit_rejected_total %d\n", rm.Rejected)
	fmt.Fprintf(w, "tally_ratelimit_clients %d\n", rm.ClientCount)
	fmt.Fprintf(w, "tally_summary_cache_hits_total %d\n", cs.Hits)
	fmt.Fprintf(w, "tally_summary_cache_misses_total %d\n", cs.Misses)
	fmt.Fprintf(w, "tally_summary_cache_entries %d\n", cs.Size)
	fmt.Fprintf(w, "tally_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.api.Profiles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponses(list))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := profileID(r)
	snap, err := s.api.Snapshot(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(id, snap))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txs, err := s.api.Transactions(r.Context(), profileID(r), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionsResponse(txs))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := profileID(r)
	text, err := s.api.Export(r.Context(), id, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
	_, _ = w.Write([]byte(text))
}

// handleImport merges a raw text body, or the text behind ?source=, into the
// profile. Sources the service refuses are rejected before any fetch. With
// ?async=true and a queue configured the source import is handed to the worker
// and 202 is returned.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := profileID(r)
	source := sanitizeInput(r.URL.Query().Get("source"))

	if source != "" {
		if err := s.api.CheckSource(source); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if source != "" && isTrue(r.URL.Query().Get("async")) {
		s.queueImport(w, r, id, source)
		return
	}

	var (
		res ingest.Result
		err error
	)
	if source != "" {
		res, err = s.api.Import(ctx, id, source)
	} else {
		body, berr := readBody(w, r)
		if berr != nil {
			s.writeError(w, r, berr)
			return
		}
		if strings.TrimSpace(body) == "" {
			s.writeError(w, r, fmt.Errorf("%w: empty body and no source", errBadRequest))
			return
		}
		res, err = s.api.ImportText(ctx, id, body)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Mode: res.Mode, Added: res.Added})
}

func (s *Server) queueImport(w http.ResponseWriter, r *http.Request, id, source string) {
	if s.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:     "asynchronous imports are not configured",
			RequestID: log.RequestIDFromContext(r.Context()),
		})
		return
	}
	if strings.TrimSpace(id) == "" {
		s.writeError(w, r, fmt.Errorf("%w: empty profile id", errBadRequest))
		return
	}
	msg := amqp.NewImportRequestMessage(id, source, log.RequestIDFromContext(r.Context()))
	if err := s.queue.PublishImportRequest(r.Context(), msg); err != nil {
		s.writeError(w, r, fmt.Errorf("queue import: %w", err))
		return
	}
	writeJSON(w, http.StatusAccepted, queuedResponse{RequestID: msg.RequestID, Status: "queued"})
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"trade-journal/internal/analysis/stats"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/performance"
	"trade-journal/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

// HealthResponse is the body of /api/v1/health.
type HealthResponse struct {
	Status   string                `json:"status"`
	Version  string                `json:"version"`
	Time     time.Time             `json:"time"`
	Uptime   string                `json:"uptime"`
	Journals int                   `json:"journals"`
	Pool     performance.PoolStats `json:"pool"`
	Memory   performance.MemStats  `json:"memory"`
	Currency string                `json:"currency"`
}

// TradesResponse is the body of /api/v1/trades.
type TradesResponse struct {
	Journal string         `json:"journal"`
	Count   int            `json:"count"`
	Trades  []models.Trade `json:"trades"`
}

// GroupsResponse is the body of /api/v1/groups.
type GroupsResponse struct {
	Journal  string                `json:"journal"`
	Grouping stats.Grouping        `json:"grouping"`
	Groups   []models.GroupMetrics `json:"groups"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrTradeNotFound), errors.Is(err, apperrors.ErrTradeDeleted):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrUnknownGroupKey),
		errors.Is(err, apperrors.ErrUnknownField),
		errors.Is(err, apperrors.ErrUnknownCategory),
		errors.Is(err, apperrors.ErrInputValidation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "healthy",
		Version:  s.version,
		Time:     time.Now().UTC(),
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Pool:     s.journal.PoolStats(),
		Memory:   performance.MemoryStats(),
		Currency: s.journal.Settings().DisplayCurrency,
	}
	journals, err := s.journal.Journals(r.Context())
	if err != nil {
		resp.Status = "degraded"
		logging.FromContext(r.Context()).Warn().Err(err).Msg("Health check could not list journals")
	}
	resp.Journals = len(journals)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJournals(w http.ResponseWriter, r *http.Request) {
	journals, err := s.journal.Journals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if journals == nil {
		journals = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"journals": journals})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTradeFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trades, err := s.journal.Trades(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	writeJSON(w, http.StatusOK, TradesResponse{Journal: filter.Journal, Count: len(trades), Trades: trades})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	t, err := s.journal.Trade(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.journal.Summary(r.Context(), r.URL.Query().Get("journal"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	grouping := stats.Grouping{
		Key:      stats.GroupKey(strings.ToLower(q.Get("by"))),
		FieldID:  strings.ToLower(q.Get("field")),
		Category: q.Get("category"),
	}
	if grouping.Key == "" {
		grouping.Key = stats.ByPair
	}
	groups, err := s.journal.Groups(r.Context(), q.Get("journal"), grouping)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GroupsResponse{Journal: q.Get("journal"), Grouping: grouping, Groups: groups})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	state, err := s.journal.Progress(r.Context(), r.URL.Query().Get("journal"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	state, err := s.journal.Progress(r.Context(), r.URL.Query().Get("journal"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": state.Leaderboard,
		"user":        state.UserEntry,
	})
}

// parseTradeFilter reads journal, pair, direction, status, strategy, from,
// to and limit. Dates are RFC 3339 or YYYY-MM-DD; a bare "to" date covers
// the whole day.
func parseTradeFilter(r *http.Request) (store.TradeFilter, error) {
	q := r.URL.Query()
	filter := store.TradeFilter{
		Journal:    q.Get("journal"),
		Pair:       q.Get("pair"),
		StrategyID: q.Get("strategy"),
	}

	if v := q.Get("direction"); v != "" {
		dir, err := models.ParseDirection(v)
		if err != nil {
			return filter, apperrors.NewValidationError("direction", v, err.Error())
		}
		filter.Direction = dir
	}
	switch strings.ToLower(q.Get("status")) {
	case "":
	case "open":
		filter.Status = models.StatusOpen
	case "closed":
		filter.Status = models.StatusClosed
	default:
		return filter, apperrors.NewValidationError("status", q.Get("status"), "must be open or closed")
	}

	var err error
	if filter.StartDate, err = parseDate("from", q.Get("from"), false); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseDate("to", q.Get("to"), true); err != nil {
		return filter, err
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, apperrors.NewValidationError("limit", v, "must be a non-negative integer")
		}
		filter.Limit = n
	}
	return filter, nil
}

func parseDate(field, v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(models.DateLayout, v); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	return time.Time{}, apperrors.NewValidationError(field, v, fmt.Sprintf("expected RFC 3339 or %s", models.DateLayout))
}

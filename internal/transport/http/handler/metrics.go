package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medtrax-api/internal/application/health"
	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/transport/http/middleware"
)

// MetricHandler serves the per-kind health series under /api/health/{kind}.
type MetricHandler struct {
	svc health.Service
}

func NewMetricHandler(svc health.Service) *MetricHandler { return &MetricHandler{svc: svc} }

func (h *MetricHandler) Save(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseMetricKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var envelope struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := domain.DecodeMetric(kind, body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if p, ok := m.(*domain.PeriodMetric); ok && envelope.Date == "" {
		envelope.Date = p.LastPeriodStart
	}
	date, err := parseEntryDate(envelope.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	entry, err := h.svc.Save(r.Context(), middleware.UserID(r.Context()), kind, date, m)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DataEnvelope{Success: true, Message: fmt.Sprintf("%s entry saved", kind), Data: entry})
}

func (h *MetricHandler) History(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseMetricKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}
	entries, err := h.svc.History(r.Context(), middleware.UserID(r.Context()), kind, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Data: entries})
}

func (h *MetricHandler) Latest(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseMetricKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeLatest(w, r, kind)
}

// LatestPeriod serves GET /api/health/period, which has no /latest suffix.
func (h *MetricHandler) LatestPeriod(w http.ResponseWriter, r *http.Request) {
	h.writeLatest(w, r, domain.MetricPeriod)
}

func (h *MetricHandler) writeLatest(w http.ResponseWriter, r *http.Request, kind domain.MetricKind) {
	entry, err := h.svc.Latest(r.Context(), middleware.UserID(r.Context()), kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	env := DataEnvelope{Success: true}
	if entry == nil {
		env.Message = "no data"
	} else {
		env.Data = entry
	}
	writeJSON(w, http.StatusOK, env)
}

// parseEntryDate accepts a calendar date or a full RFC 3339 timestamp.
func parseEntryDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required: %w", domain.ErrBadRequest)
	}
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD or RFC 3339: %w", domain.ErrBadRequest)
	}
	return t, nil
}

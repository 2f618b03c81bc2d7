package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medtrax-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHealthSvc struct{ mock.Mock }

func (m *mockHealthSvc) Save(ctx context.Context, userID string, kind domain.MetricKind, date time.Time, metric domain.Metric) (*domain.HealthEntry, error) {
	args := m.Called(ctx, userID, kind, date, metric)
	if e, _ := args.Get(0).(*domain.HealthEntry); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockHealthSvc) History(ctx context.Context, userID string, kind domain.MetricKind, limit int) ([]domain.HealthEntry, error) {
	args := m.Called(ctx, userID, kind, limit)
	es, _ := args.Get(0).([]domain.HealthEntry)
	return es, args.Error(1)
}
func (m *mockHealthSvc) Latest(ctx context.Context, userID string, kind domain.MetricKind) (*domain.HealthEntry, error) {
	args := m.Called(ctx, userID, kind)
	if e, _ := args.Get(0).(*domain.HealthEntry); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func metricRouter(t *testing.T, svc *mockHealthSvc) (http.Handler, func(method, target string, body []byte) *http.Request) {
	p := newTestJWTProvider(t)
	h := NewMetricHandler(svc)
	router := authedRouter(p, func(r chi.Router) {
		r.Get("/api/health/period", h.LatestPeriod)
		r.Post("/api/health/{kind}", h.Save)
		r.Get("/api/health/{kind}/history", h.History)
		r.Get("/api/health/{kind}/latest", h.Latest)
	})
	return router, func(method, target string, body []byte) *http.Request {
		return bearerReq(t, p, method, target, "u1", body)
	}
}

func TestMetricSave_FlattensPayload(t *testing.T) {
	svc := &mockHealthSvc{}
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.On("Save", mock.Anything, "u1", domain.MetricWeight, date, &domain.WeightMetric{Weight: 62.5, Unit: "kg"}).
		Return(&domain.HealthEntry{EntryID: "e1", UserID: "u1", Kind: domain.MetricWeight, Date: date, Weight: &domain.WeightMetric{Weight: 62.5, Unit: "kg"}}, nil)
	router, req := metricRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req(http.MethodPost, "/api/health/weight", []byte(`{"date":"2024-03-01","weight":62.5,"unit":"kg"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, 62.5, data["weight"])
	assert.Equal(t, "e1", data["id"])
}

func TestMetricSave_HormonesAlias(t *testing.T) {
	svc := &mockHealthSvc{}
	svc.On("Save", mock.Anything, "u1", domain.MetricHormone, mock.Anything, mock.AnythingOfType("*domain.HormoneMetric")).
		Return(&domain.HealthEntry{EntryID: "e2", Kind: domain.MetricHormone}, nil)
	router, req := metricRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req(http.MethodPost, "/api/health/hormones", []byte(`{"date":"2024-03-01T09:00:00Z","FSH":4.2}`)))
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestMetricSave_BadRequests(t *testing.T) {
	router, req := metricRouter(t, &mockHealthSvc{})

	for name, tc := range map[string]struct{ target, body string }{
		"unknown kind": {"/api/health/mood", `{"date":"2024-03-01"}`},
		"missing date": {"/api/health/sleep", `{"hoursSlept":7}`},
		"bad date":     {"/api/health/sleep", `{"date":"yesterday","hoursSlept":7}`},
		"wrong types":  {"/api/health/sleep", `{"date":"2024-03-01","hoursSlept":"seven"}`},
		"empty body":   {"/api/health/sleep", ``},
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req(http.MethodPost, tc.target, []byte(tc.body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
	}
}

func TestMetricLatest_NoData(t *testing.T) {
	svc := &mockHealthSvc{}
	svc.On("Latest", mock.Anything, "u1", domain.MetricSleep).Return(nil, nil)
	router, req := metricRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req(http.MethodGet, "/api/health/sleep/latest", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Nil(t, body["data"])
	assert.Equal(t, "no data", body["message"])
}

func TestMetricHistory_Limit(t *testing.T) {
	svc := &mockHealthSvc{}
	svc.On("History", mock.Anything, "u1", domain.MetricStress, 10).Return([]domain.HealthEntry{}, nil)
	router, req := metricRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req(http.MethodGet, "/api/health/stress/history?limit=10", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req(http.MethodGet, "/api/health/stress/history?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNumberOfCalls(t, "History", 1)
}

func TestMetricSave_PeriodDatesFromLastStart(t *testing.T) {
	svc := &mockHealthSvc{}
	start := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	svc.On("Save", mock.Anything, "u1", domain.MetricPeriod, start, &domain.PeriodMetric{LastPeriodStart: "2024-01-20", CycleLength: 28}).
		Return(&domain.HealthEntry{EntryID: "p1", Kind: domain.MetricPeriod, Date: start, Period: &domain.PeriodMetric{
			LastPeriodStart: "2024-01-20", PeriodDuration: 5, CycleLength: 28,
			EstimatedOvulation: "2024-02-03", NextPeriodStart: "2024-02-17", NextPeriodEnd: "2024-02-21",
		}}, nil)
	router, req := metricRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req(http.MethodPost, "/api/health/period", []byte(`{"lastPeriodStart":"2024-01-20","cycleLength":28}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	data := decodeBody(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, "2024-02-17", data["nextPeriodStart"])
	assert.Equal(t, "2024-02-21", data["nextPeriodEnd"])
	svc.AssertExpectations(t)
}

func TestMetricLatestPeriod(t *testing.T) {
	svc := &mockHealthSvc{}
	svc.On("Latest", mock.Anything, "u1", domain.MetricPeriod).
		Return(&domain.HealthEntry{EntryID: "p1", Kind: domain.MetricPeriod, Period: &domain.PeriodMetric{LastPeriodStart: "2024-01-20", NextPeriodStart: "2024-02-17"}}, nil)
	router, req := metricRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req(http.MethodGet, "/api/health/period", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeBody(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, "2024-01-20", data["lastPeriodStart"])
	assert.Equal(t, "period", data["kind"])
}

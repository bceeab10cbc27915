package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"circ-supply/internal/worker/dao"
	"circ-supply/internal/worker/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSnapshotDAO struct {
	rows []*model.SupplySnapshot // newest first
	err  error

	rangeStart, rangeEnd time.Time
	recentLimit          int
	allCalled            bool
}

func (f *fakeSnapshotDAO) Latest(context.Context) (*model.SupplySnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.rows) == 0 {
		return nil, dao.ErrNotFound
	}
	return f.rows[0], nil
}

func (f *fakeSnapshotDAO) Range(_ context.Context, start, end time.Time) ([]*model.SupplySnapshot, error) {
	f.rangeStart, f.rangeEnd = start, end
	return f.rows, f.err
}

func (f *fakeSnapshotDAO) Recent(_ context.Context, limit int) ([]*model.SupplySnapshot, error) {
	f.recentLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeSnapshotDAO) All(context.Context) ([]*model.SupplySnapshot, error) {
	f.allCalled = true
	return f.rows, f.err
}

func (f *fakeSnapshotDAO) InvalidateLatest(context.Context) {}

func sampleRows() []*model.SupplySnapshot {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*model.SupplySnapshot{
		{Ts: base.Add(2 * time.Hour), TotalSupply: "1000000000000", LockedBalance: "250000000000", CirculatingSupply: "750000000000"},
		{Ts: base.Add(time.Hour), TotalSupply: "1000000000000", LockedBalance: "500000000000", CirculatingSupply: "500000000000"},
		{Ts: base, TotalSupply: "1000000000001", LockedBalance: "0", CirculatingSupply: "1000000000001"},
	}
}

func serve(t *testing.T, d dao.SnapshotDAO, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := NewRouter(d, 9, zap.NewNop())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestLatest(t *testing.T) {
	w, body := serve(t, &fakeSnapshotDAO{rows: sampleRows()}, http.MethodGet, "/api/latest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1000000000000", body["total_supply"])
	assert.Equal(t, "250000000000", body["locked_balance"])
	assert.Equal(t, "750000000000", body["circulating_supply"])
	assert.Equal(t, "1000", body["totalFormatted"])
	assert.Equal(t, "250", body["lockedFormatted"])
	assert.Equal(t, "750", body["circFormatted"])
	assert.Equal(t, 25.0, body["pctLocked"])
	assert.Equal(t, "2025-03-01T14:00:00Z", body["ts"])
}

func TestLatest_NoData(t *testing.T) {
	w, body := serve(t, &fakeSnapshotDAO{}, http.MethodGet, "/api/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No data", body["error"])
}

func TestLatest_DatabaseErrorHidesDetail(t *testing.T) {
	w, body := serve(t, &fakeSnapshotDAO{err: errors.New("pq: password authentication failed")}, http.MethodGet, "/api/latest")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{"error": "Database error"}, body)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestLatest_ZeroTotal(t *testing.T) {
	rows := []*model.SupplySnapshot{{TotalSupply: "0", LockedBalance: "0", CirculatingSupply: "0"}}
	w, body := serve(t, &fakeSnapshotDAO{rows: rows}, http.MethodGet, "/api/latest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["pctLocked"])
	assert.Equal(t, "0", body["circFormatted"])
}

func TestMethodNotAllowed(t *testing.T) {
	for _, path := range []string{"/api/latest", "/api/history", "/api/summary"} {
		w, body := serve(t, &fakeSnapshotDAO{}, http.MethodPost, path)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, path)
		assert.Equal(t, "Method not allowed", body["error"])
	}
}

func TestHistory_All(t *testing.T) {
	d := &fakeSnapshotDAO{rows: sampleRows()}
	w, body := serve(t, d, http.MethodGet, "/api/history")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, d.allCalled)
	assert.Equal(t, 3.0, body["count"])

	data := body["data"].([]any)
	require.Len(t, data, 3)
	first := data[0].(map[string]any)
	assert.Equal(t, "2025-03-01T14:00:00Z", first["ts"])
	last := data[2].(map[string]any)
	assert.Equal(t, "1000.000000001", last["totalFormatted"])
	assert.Equal(t, 0.0, last["pctLocked"])
}

func TestHistory_Limit(t *testing.T) {
	d := &fakeSnapshotDAO{rows: sampleRows()}
	w, body := serve(t, d, http.MethodGet, "/api/history?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, d.recentLimit)
	assert.Equal(t, 2.0, body["count"])
}

func TestHistory_InvalidLimit(t *testing.T) {
	for _, q := range []string{"limit=0", "limit=-3", "limit=abc"} {
		w, body := serve(t, &fakeSnapshotDAO{rows: sampleRows()}, http.MethodGet, "/api/history?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, "Invalid limit", body["error"], q)
	}
}

func TestHistory_Range(t *testing.T) {
	d := &fakeSnapshotDAO{rows: sampleRows()[:1]}
	w, body := serve(t, d, http.MethodGet, "/api/history?start=2025-03-01&end=2025-03-02T00:00:00Z&limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), d.rangeStart)
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), d.rangeEnd)
	assert.Zero(t, d.recentLimit)
	assert.Equal(t, 1.0, body["count"])
}

func TestHistory_HalfRange(t *testing.T) {
	for _, q := range []string{"start=2025-03-01", "end=2025-03-01"} {
		w, body := serve(t, &fakeSnapshotDAO{}, http.MethodGet, "/api/history?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, "Both start and end required", body["error"])
	}
}

func TestHistory_BadTime(t *testing.T) {
	w, body := serve(t, &fakeSnapshotDAO{}, http.MethodGet, "/api/history?start=yesterday&end=2025-03-01")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid start", body["error"])
}

func TestHistory_Empty(t *testing.T) {
	w, body := serve(t, &fakeSnapshotDAO{}, http.MethodGet, "/api/history")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, body["count"])
	assert.Equal(t, []any{}, body["data"])
}

func TestSummary(t *testing.T) {
	d := &fakeSnapshotDAO{rows: sampleRows()}
	w, body := serve(t, d, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultSummaryLimit, d.recentLimit)
	assert.Equal(t, 3.0, body["count"])

	avg := body["average"].(map[string]any)
	// (3000000000001 / 3) 整数除法
	assert.Equal(t, "1000000000000", avg["total_supply"])
	assert.Equal(t, "250000000000", avg["locked_balance"])
	assert.Equal(t, "750000000000", avg["circulating_supply"])
	assert.Equal(t, "750", avg["circFormatted"])
	assert.Equal(t, 25.0, avg["pctLocked"])

	assert.Equal(t, "500000000000", body["min"].(map[string]any)["circulating_supply"])
	assert.Equal(t, "1000.000000001", body["max"].(map[string]any)["circFormatted"])
}

func TestSummary_Limit(t *testing.T) {
	d := &fakeSnapshotDAO{rows: sampleRows()}
	w, body := serve(t, d, http.MethodGet, "/api/summary?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, d.recentLimit)
	assert.Equal(t, 1.0, body["count"])
	assert.Equal(t, "750000000000", body["min"].(map[string]any)["circulating_supply"])
}

func TestSummary_InvalidLimit(t *testing.T) {
	w, body := serve(t, &fakeSnapshotDAO{}, http.MethodGet, "/api/summary?limit=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid limit", body["error"])
}

func TestSummary_Empty(t *testing.T) {
	w, body := serve(t, &fakeSnapshotDAO{}, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, body["count"])
	assert.Equal(t, []any{}, body["data"])
}

func TestSummary_DatabaseError(t *testing.T) {
	w, body := serve(t, &fakeSnapshotDAO{err: errors.New("connection refused")}, http.MethodGet, "/api/summary")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Database error", body["error"])
}

func TestHealthz(t *testing.T) {
	w, body := serve(t, &fakeSnapshotDAO{}, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff_record_notifier/internal/app"
	"staff_record_notifier/internal/domain/alert"
	idb "staff_record_notifier/internal/infra/database"
)

type fakeService struct {
	runResult *app.RunResult
	runErr    error
	report    *app.StatusReport
	statusErr error
}

func (f *fakeService) RunOnce(_ context.Context) (*app.RunResult, error) {
	return f.runResult, f.runErr
}

func (f *fakeService) Status(_ context.Context) (*app.StatusReport, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.report, nil
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func doRequest(t *testing.T, svc Service, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(svc, testLogger())
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, &fakeService{}, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatus_OK(t *testing.T) {
	svc := &fakeService{report: &app.StatusReport{
		PeriodID:            1,
		Year:                2026,
		Semester:            1,
		DaysSinceActivation: 5,
		StaffWithoutEntries: 12,
		TotalStaff:          48,
		ComplianceRate:      75,
		NextTier:            alert.TierSecond,
		NextTierDueIn:       2,
	}}

	rec := doRequest(t, svc, http.MethodGet, "/api/v1/status")

	require.Equal(t, http.StatusOK, rec.Code)
	var got app.StatusReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int32(1), got.PeriodID)
	assert.Equal(t, 75, got.ComplianceRate)
	assert.Equal(t, alert.TierSecond, got.NextTier)
}

func TestStatus_NoActivePeriod(t *testing.T) {
	svc := &fakeService{statusErr: idb.ErrNoActivePeriod}

	rec := doRequest(t, svc, http.MethodGet, "/api/v1/status")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no active reporting period"}`, rec.Body.String())
}

func TestStatus_InternalError(t *testing.T) {
	svc := &fakeService{statusErr: errors.New("connection refused")}

	rec := doRequest(t, svc, http.MethodGet, "/api/v1/status")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"status unavailable"}`, rec.Body.String())
}

func TestRun_OK(t *testing.T) {
	svc := &fakeService{runResult: &app.RunResult{
		RunID:               "run-1",
		Status:              app.RunCompleted,
		DaysSinceActivation: 3,
		DueTier:             alert.TierFirst,
		Metrics:             &app.RunMetrics{TotalEmails: 50, SuccessfulEmails: 50, SuccessRate: 100},
	}}

	rec := doRequest(t, svc, http.MethodPost, "/api/v1/run")

	require.Equal(t, http.StatusOK, rec.Code)
	var got app.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, app.RunCompleted, got.Status)
	require.NotNil(t, got.Metrics)
	assert.Equal(t, 100, got.Metrics.SuccessRate)
}

func TestRun_AbortedReturnsPartialResult(t *testing.T) {
	svc := &fakeService{
		runResult: &app.RunResult{
			RunID:  "run-2",
			Status: app.RunAborted,
			Reason: "alert ledger unavailable",
		},
		runErr: errors.New("ledger lookup failed for staff 3: connection refused"),
	}

	rec := doRequest(t, svc, http.MethodPost, "/api/v1/run")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var got app.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, app.RunAborted, got.Status)
	assert.Equal(t, "alert ledger unavailable", got.Reason)
}

func TestRun_NilResultOnError(t *testing.T) {
	svc := &fakeService{runErr: errors.New("boom")}

	rec := doRequest(t, svc, http.MethodPost, "/api/v1/run")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"run failed"}`, rec.Body.String())
}

func TestRun_GetNotAllowed(t *testing.T) {
	rec := doRequest(t, &fakeService{}, http.MethodGet, "/api/v1/run")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scoring-engine/internal/handlers"
	"scoring-engine/internal/metrics"
	"scoring-engine/internal/models"
	"scoring-engine/internal/services/assessment"
	s3service "scoring-engine/internal/services/s3"
	"scoring-engine/internal/services/ses"
	"scoring-engine/internal/utils"
)

func TestMain(m *testing.M) {
	utils.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

const strongForm = `{
	"age": "30", "income": "80000", "creditScore": "760", "loanAmount": "150000",
	"loanTerm": "120", "education": "Graduate", "employmentType": "Salaried",
	"married": "Yes", "propertyArea": "Urban", "dependents": "0"
}`

const spamEmail = `{"subject": "URGENT: You are a LOTTERY WINNER!!!", "sender": "user@tempmail.com", "content": "claim your prize now, click here"}`

const batchCSV = "age,annual_income,credit_score,loan_amount,loan_term,education,employment,property_area,dependents\n" +
	"30,80000,760,150000,120,Graduate,Salaried,Urban,0\n" +
	"22,20000,550,100000,360,Not Graduate,Self-Employed,Rural,3+\n"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type stubExporter struct{}

func (stubExporter) Export(_ context.Context, snap s3service.Snapshot) (*s3service.ExportResult, error) {
	return &s3service.ExportResult{Bucket: "exports", Key: s3service.ExportKey(snap.Kind, snap.ExportedAt, "x"), Count: snap.Count}, nil
}

type stubNotifier struct {
	sent []ses.DecisionNotificationParams
}

func (n *stubNotifier) SendDecisionNotification(_ context.Context, p ses.DecisionNotificationParams) (*ses.SendEmailResult, error) {
	n.sent = append(n.sent, p)
	return &ses.SendEmailResult{MessageID: "msg-1"}, nil
}

type testServer struct {
	handler  http.Handler
	metrics  *metrics.Metrics
	notifier *stubNotifier
}

func newTestServer(t *testing.T, opts assessment.Options, limiter *RateLimiter) *testServer {
	t.Helper()

	m := metrics.New()
	opts.Metrics = m
	svc, err := assessment.New(opts)
	require.NoError(t, err)

	ts := &testServer{metrics: m}
	if n, ok := opts.Notifier.(*stubNotifier); ok {
		ts.notifier = n
	}
	ts.handler = NewServer(svc, handlers.NewHealthHandler(nil, "test", "test"), m, limiter).Routes()
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec.Code, body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func csvUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/loan/batch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)

	status, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	var report handlers.HealthResponse
	require.NoError(t, json.Unmarshal(body.Data, &report))
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, "not configured", report.History)
}

func TestPresets(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)

	status, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/presets", nil))
	require.Equal(t, http.StatusOK, status)

	var presets []PresetInfo
	require.NoError(t, json.Unmarshal(body.Data, &presets))
	require.Len(t, presets, 3)

	defaults := 0
	for _, p := range presets {
		assert.NotEmpty(t, p.Rules, p.Name)
		if p.Default {
			defaults++
			assert.Equal(t, "canonical", p.Name)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestScoreLoan(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)

	status, body := ts.do(t, jsonRequest(http.MethodPost, "/api/loan/score", strongForm))
	require.Equal(t, http.StatusOK, status)

	var rec models.LoanRecord
	require.NoError(t, json.Unmarshal(body.Data, &rec))
	assert.True(t, rec.Decision.Approved)
	assert.Equal(t, 115, rec.Decision.TotalScore)
	assert.Equal(t, 95, rec.Decision.ConfidencePercent)

	status, body = ts.do(t, jsonRequest(http.MethodGet, "/api/history/loans", ""))
	require.Equal(t, http.StatusOK, status)
	var records []models.LoanRecord
	require.NoError(t, json.Unmarshal(body.Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
}

func TestScoreLoan_BadRequests(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"malformed json", "/api/loan/score", "{"},
		{"invalid field", "/api/loan/score", `{"age": "abc"}`},
		{"unknown preset", "/api/loan/score?preset=nope", strongForm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, jsonRequest(http.MethodPost, tt.target, tt.body))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestScoreBatch(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)

	status, body := ts.do(t, csvUpload(t, "applicants.csv", batchCSV))
	require.Equal(t, http.StatusOK, status)

	var result models.BatchScoreResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, 2, result.Scored)
	assert.Equal(t, 1, result.Approved)
	assert.Equal(t, 1, result.Rejected)

	status, body = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/history/loans/stats", nil))
	require.Equal(t, http.StatusOK, status)
	var stats models.LoanStats
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 50.0, stats.ApprovalRate)
}

func TestScoreBatch_Rejected(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)

	status, body := ts.do(t, csvUpload(t, "payload.txt", batchCSV))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Only CSV files are allowed", body.Error)

	status, body = ts.do(t, csvUpload(t, "contacts.csv", "name,email\nx,y\n"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No valid applications found in CSV", body.Error)
}

func TestClassifyAndHistory(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)

	status, body := ts.do(t, jsonRequest(http.MethodPost, "/api/email/classify", spamEmail))
	require.Equal(t, http.StatusOK, status)

	var rec models.EmailRecord
	require.NoError(t, json.Unmarshal(body.Data, &rec))
	assert.True(t, rec.Classification.IsSpam)
	assert.Equal(t, 39, rec.Classification.RawScore)

	status, body = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/history/emails/stats", nil))
	require.Equal(t, http.StatusOK, status)
	var stats models.EmailStats
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, 1, stats.Spam)

	status, _ = ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/history/emails", nil))
	require.Equal(t, http.StatusOK, status)

	status, body = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/history/emails", nil))
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body.Data))

	status, body = ts.do(t, jsonRequest(http.MethodPost, "/api/email/classify", `{}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Error, "subject or content is required")
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)

	status, _ := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/history/export?kind=loans", nil))
	assert.Equal(t, http.StatusServiceUnavailable, status)

	ts = newTestServer(t, assessment.Options{Exporter: stubExporter{}}, nil)

	status, body := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/history/export?kind=cats", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Error, "loans, emails")

	status, body = ts.do(t, httptest.NewRequest(http.MethodPost, "/api/history/export?kind=emails", nil))
	require.Equal(t, http.StatusOK, status)
	var result s3service.ExportResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, "exports", result.Bucket)
	assert.True(t, strings.HasPrefix(result.Key, "exports/emails/"), result.Key)
}

func TestNotify(t *testing.T) {
	ts := newTestServer(t, assessment.Options{Notifier: &stubNotifier{}}, nil)

	_, body := ts.do(t, jsonRequest(http.MethodPost, "/api/loan/score", strongForm))
	var rec models.LoanRecord
	require.NoError(t, json.Unmarshal(body.Data, &rec))

	status, _ := ts.do(t, jsonRequest(http.MethodPost, "/api/notify",
		`{"email": "applicant@example.com", "record_id": "`+rec.ID+`"}`))
	require.Equal(t, http.StatusOK, status)
	require.Len(t, ts.notifier.sent, 1)
	assert.Equal(t, "applicant@example.com", ts.notifier.sent[0].To)
	assert.Equal(t, rec.ID, ts.notifier.sent[0].Record.ID)

	status, _ = ts.do(t, jsonRequest(http.MethodPost, "/api/notify",
		`{"email": "applicant@example.com", "record_id": "missing"}`))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, jsonRequest(http.MethodPost, "/api/notify",
		`{"email": "not-an-address", "record_id": "`+rec.ID+`"}`))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, jsonRequest(http.MethodPost, "/api/notify", `{"email": "applicant@example.com"}`))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRateLimitedScoring(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	ts := newTestServer(t, assessment.Options{}, limiter)

	for i := 0; i < 2; i++ {
		status, _ := ts.do(t, jsonRequest(http.MethodPost, "/api/loan/score", strongForm))
		require.Equal(t, http.StatusOK, status)
	}

	status, body := ts.do(t, jsonRequest(http.MethodPost, "/api/loan/score", strongForm))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.False(t, body.Success)

	// History reads are not limited
	status, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/history/loans", nil))
	assert.Equal(t, http.StatusOK, status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)
	ts.do(t, jsonRequest(http.MethodPost, "/api/loan/score", strongForm))

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := rec.Body.String()
	assert.Contains(t, out, "scoring_engine_loan_decisions_total")
	assert.Contains(t, out, `route="POST /api/loan/score"`)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, assessment.Options{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/loan/score", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

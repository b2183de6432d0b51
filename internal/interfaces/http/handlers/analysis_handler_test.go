package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
	"github.com/turtacn/NMReportChecker/internal/config"
	domain "github.com/turtacn/NMReportChecker/internal/domain/analysis"
	"github.com/turtacn/NMReportChecker/internal/intelligence/pipeline"
	"github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

const testReport = "1H NMR (400 MHz, CDCl3) δ 7.26 (s, 1H), 1.20 (d, J = 6.8 Hz, 6H)"

type mockAnalysisService struct {
	mock.Mock
}

func (m *mockAnalysisService) Analyze(ctx context.Context, req *analysis.AnalyzeRequest) (*analysis.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.Result), args.Error(1)
}

func (m *mockAnalysisService) Validate(ctx context.Context, text string) []string {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *mockAnalysisService) History(ctx context.Context, limit int) ([]*domain.Record, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Record), args.Error(1)
}

func (m *mockAnalysisService) Get(ctx context.Context, id string) (*domain.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *mockAnalysisService) Solvents() []analysis.SolventTable {
	return m.Called().Get(0).([]analysis.SolventTable)
}

func newTestRouter(h *AnalysisHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/analyses", h.Analyze)
	r.Get("/api/v1/analyses", h.List)
	r.Get("/api/v1/analyses/{id}", h.Get)
	r.Post("/api/v1/validate", h.Validate)
	r.Get("/api/v1/solvents", h.Solvents)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func sampleResult() *analysis.Result {
	return &analysis.Result{
		ID:         "5b4a3c1e-0000-4000-8000-000000000001",
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		DurationMS: 3,
		Rows:       []pipeline.TableRow{{Index: 1, Shift: "7.26", Multiplicity: "s", Integral: "1H"}},
		Analysis: &pipeline.Analysis{
			Header:   nmr.ParsedHeader{FrequencyMHz: 400, Solvent: "CDCl3"},
			Spectrum: nmr.Spectrum{Axis: []float64{0, 1, 2}, Intensity: []float64{0, 1, 0}},
			View:     nmr.View{Lo: 0, Hi: 2},
			Summary:  pipeline.Summary{FrequencyMHz: 400, Solvent: "CDCl3", TotalEntries: 1},
		},
	}
}

func TestAnalyze_OmitsSpectrumByDefault(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("Analyze", mock.Anything, mock.MatchedBy(func(r *analysis.AnalyzeRequest) bool {
		return r.Text == testReport && r.Range == nil && r.Points == 0 && !r.Archive
	})).Return(sampleResult(), nil)
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	rec := do(t, h, http.MethodPost, "/api/v1/analyses", `{"text":"`+testReport+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "spectrum")
	assert.JSONEq(t, `[]`, string(raw["issues"]))
	assert.JSONEq(t, `[]`, string(raw["impurity_bands"]))
	svc.AssertExpectations(t)
}

func TestAnalyze_IncludeSpectrumAndRange(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("Analyze", mock.Anything, mock.MatchedBy(func(r *analysis.AnalyzeRequest) bool {
		return r.Range != nil && r.Range.Lo == 0.5 && r.Range.Hi == 8 && r.Points == 1024 && r.Archive
	})).Return(sampleResult(), nil)
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	body := `{"text":"x","lo_ppm":0.5,"hi_ppm":8,"points":1024,"include_spectrum":true,"archive":true}`
	rec := do(t, h, http.MethodPost, "/api/v1/analyses", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Spectrum)
	assert.Equal(t, []float64{0, 1, 0}, resp.Spectrum.Intensity)
	assert.Equal(t, "CDCl3", resp.Header.Solvent)
	assert.Len(t, resp.Rows, 1)
}

func TestAnalyze_HalfRange(t *testing.T) {
	svc := new(mockAnalysisService)
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	rec := do(t, h, http.MethodPost, "/api/v1/analyses", `{"text":"x","lo_ppm":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "COMMON_002", decodeError(t, rec).Code)
	svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestAnalyze_BadBodies(t *testing.T) {
	svc := new(mockAnalysisService)
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	for _, body := range []string{`{"text":`, `{"txt":"x"}`} {
		rec := do(t, h, http.MethodPost, "/api/v1/analyses", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "COMMON_002", decodeError(t, rec).Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_BodyOverLimit(t *testing.T) {
	svc := new(mockAnalysisService)
	handler := NewAnalysisHandler(svc, nil)

	body := `{"text":"` + strings.Repeat("a", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(body))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 16)
	handler.Analyze(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "NMR_002", decodeError(t, rec).Code)
}

func TestAnalyze_ServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errors.New(errors.ErrCodeReportEmpty, "report text is empty"), http.StatusBadRequest, "NMR_003"},
		{errors.New(errors.ErrCodeRenderParamsInvalid, "points must be at least 2"), http.StatusBadRequest, "NMR_001"},
		{errors.New(errors.ErrCodeArchiveFailed, "failed to archive spectrum"), http.StatusBadGateway, "NMR_005"},
		{errors.New(errors.ErrCodeFeatureDisabled, "spectrum archive is not configured"), http.StatusForbidden, "COMMON_015"},
		{stderrors.New("boom"), http.StatusInternalServerError, "COMMON_001"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "COMMON_009"},
		{errors.Wrap(context.DeadlineExceeded, errors.ErrCodeDatabaseError, "save analysis"), http.StatusGatewayTimeout, "COMMON_009"},
	}
	for _, tc := range cases {
		svc := new(mockAnalysisService)
		svc.On("Analyze", mock.Anything, mock.Anything).Return(nil, tc.err)
		h := newTestRouter(NewAnalysisHandler(svc, nil))

		rec := do(t, h, http.MethodPost, "/api/v1/analyses", `{"text":"x"}`)
		assert.Equal(t, tc.status, rec.Code, tc.code)
		e := decodeError(t, rec)
		assert.Equal(t, tc.code, e.Code)
		assert.NotContains(t, e.Message, "boom")
	}
}

func TestValidate(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("Validate", mock.Anything, "bad report").Return([]string{"issue one", "issue two"})
	svc.On("Validate", mock.Anything, "good report").Return(nil)
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	rec := do(t, h, http.MethodPost, "/api/v1/validate", `{"text":"bad report"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, []string{"issue one", "issue two"}, resp.Issues)

	rec = do(t, h, http.MethodPost, "/api/v1/validate", `{"text":"good report"}`)
	assert.JSONEq(t, `{"issues":[],"count":0}`, rec.Body.String())
}

func TestList_Limit(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("History", mock.Anything, 5).Return([]*domain.Record{{ReportText: "a"}}, nil)
	svc.On("History", mock.Anything, defaultListLimit).Return(nil, nil)
	svc.On("History", mock.Anything, maxListLimit).Return([]*domain.Record{}, nil)
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	rec := do(t, h, http.MethodGet, "/api/v1/analyses?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	rec = do(t, h, http.MethodGet, "/api/v1/analyses?limit=abc", "")
	assert.JSONEq(t, `{"items":[],"count":0}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/analyses?limit=100000", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestList_HistoryDisabled(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("History", mock.Anything, defaultListLimit).
		Return(nil, errors.New(errors.ErrCodeFeatureDisabled, "analysis history is not configured"))
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	rec := do(t, h, http.MethodGet, "/api/v1/analyses", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "COMMON_015", decodeError(t, rec).Code)
}

func TestGet(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("Get", mock.Anything, "abc").Return(&domain.Record{ReportText: testReport}, nil)
	svc.On("Get", mock.Anything, "missing").
		Return(nil, errors.New(errors.ErrCodeAnalysisNotFound, "analysis not found").WithDetail("missing"))
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	rec := do(t, h, http.MethodGet, "/api/v1/analyses/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, testReport, got.ReportText)

	rec = do(t, h, http.MethodGet, "/api/v1/analyses/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "NMR_006", e.Code)
	assert.Equal(t, "analysis not found: missing", e.Message)
}

func TestSolvents(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("Solvents").Return([]analysis.SolventTable{{Solvent: "CDCl3", Peaks: []nmr.ImpurityPeak{}}})
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	rec := do(t, h, http.MethodGet, "/api/v1/solvents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SolventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Solvents, 1)
	assert.Equal(t, "CDCl3", resp.Solvents[0].Solvent)
}

func TestAnalyze_RealService(t *testing.T) {
	svc, err := analysis.NewService(analysis.ConfigFrom(config.NewDefaultConfig()), analysis.Deps{})
	require.NoError(t, err)
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	payload, err := json.Marshal(AnalyzeRequest{Text: testReport, Points: 2048})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 400.0, resp.Header.FrequencyMHz)
	assert.Equal(t, 2, resp.Summary.TotalEntries)
	assert.Equal(t, 1, resp.Summary.ImpurityCount)
	assert.Len(t, resp.Rows, 2)
	assert.Nil(t, resp.Spectrum)
	assert.NotEmpty(t, resp.ID)

	rec = do(t, h, http.MethodPost, "/api/v1/analyses", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NMR_003", decodeError(t, rec).Code)

	rec = do(t, h, http.MethodGet, "/api/v1/analyses", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnalyze_RealServiceOverflowingIntegral(t *testing.T) {
	svc, err := analysis.NewService(analysis.ConfigFrom(config.NewDefaultConfig()), analysis.Deps{})
	require.NoError(t, err)
	h := newTestRouter(NewAnalysisHandler(svc, nil))

	payload, err := json.Marshal(AnalyzeRequest{
		Text:   "1H NMR (400 MHz, CDCl3) δ 3.10 (s, " + strings.Repeat("9", 400) + "H)",
		Points: 512,
	})
	require.NoError(t, err)
	rec := do(t, h, http.MethodPost, "/api/v1/analyses", string(payload))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1.0, resp.Summary.TotalProtons)
}

func TestWriteJSON_UnencodablePayload(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"v": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "COMMON_011", decodeError(t, rec).Code)
}

//Personal.AI order the ending

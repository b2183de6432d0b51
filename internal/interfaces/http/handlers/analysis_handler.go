package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
	domain "github.com/turtacn/NMReportChecker/internal/domain/analysis"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/internal/intelligence/pipeline"
	"github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// AnalysisHandler serves the report analysis endpoints.
type AnalysisHandler struct {
	svc    analysis.Service
	logger logging.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(svc analysis.Service, logger logging.Logger) *AnalysisHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalysisHandler{svc: svc, logger: logger.Named("http.analysis")}
}

// AnalyzeRequest is the body of POST /api/v1/analyses.
type AnalyzeRequest struct {
	Text            string   `json:"text"`
	LoPPM           *float64 `json:"lo_ppm,omitempty"`
	HiPPM           *float64 `json:"hi_ppm,omitempty"`
	Points          int      `json:"points,omitempty"`
	IncludeSpectrum bool     `json:"include_spectrum,omitempty"`
	Archive         bool     `json:"archive,omitempty"`
}

// AnalysisResponse is the analysis as returned over HTTP.  Spectrum is only
// present when the client asked for it.
type AnalysisResponse struct {
	ID            string                 `json:"id"`
	CreatedAt     time.Time              `json:"created_at"`
	Cached        bool                   `json:"cached"`
	DurationMS    int64                  `json:"duration_ms"`
	ArchiveKey    string                 `json:"archive_key,omitempty"`
	ArchiveURL    string                 `json:"archive_url,omitempty"`
	Header        nmr.ParsedHeader       `json:"header"`
	Summary       pipeline.Summary       `json:"summary"`
	Rows          []pipeline.TableRow    `json:"rows"`
	Entries       []pipeline.EntryResult `json:"entries"`
	View          nmr.View               `json:"view"`
	ImpurityBands []nmr.Band             `json:"impurity_bands"`
	Issues        []string               `json:"issues"`
	Spectrum      *nmr.Spectrum          `json:"spectrum,omitempty"`
}

// ValidateRequest is the body of POST /api/v1/validate.
type ValidateRequest struct {
	Text string `json:"text"`
}

// ValidateResponse lists format issues.
type ValidateResponse struct {
	Issues []string `json:"issues"`
	Count  int      `json:"count"`
}

// HistoryResponse is a page of stored analyses, newest first.
type HistoryResponse struct {
	Items []*domain.Record `json:"items"`
	Count int              `json:"count"`
}

// SolventsResponse lists the impurity tables.
type SolventsResponse struct {
	Solvents []analysis.SolventTable `json:"solvents"`
}

// Analyze handles POST /api/v1/analyses.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	svcReq := &analysis.AnalyzeRequest{Text: req.Text, Points: req.Points, Archive: req.Archive}
	switch {
	case req.LoPPM != nil && req.HiPPM != nil:
		svcReq.Range = &analysis.Range{Lo: *req.LoPPM, Hi: *req.HiPPM}
	case req.LoPPM != nil || req.HiPPM != nil:
		writeAppError(w, errors.InvalidParam("lo_ppm and hi_ppm must be given together"))
		return
	}

	res, err := h.svc.Analyze(r.Context(), svcReq)
	if err != nil {
		h.logger.WithContext(r.Context()).Debug("analysis rejected", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnalysisResponse(res, req.IncludeSpectrum))
}

func newAnalysisResponse(res *analysis.Result, includeSpectrum bool) *AnalysisResponse {
	a := res.Analysis
	out := &AnalysisResponse{
		ID:            res.ID,
		CreatedAt:     res.CreatedAt,
		Cached:        res.Cached,
		DurationMS:    res.DurationMS,
		ArchiveKey:    res.ArchiveKey,
		ArchiveURL:    res.ArchiveURL,
		Header:        a.Header,
		Summary:       a.Summary,
		Rows:          res.Rows,
		Entries:       a.Entries,
		View:          a.View,
		ImpurityBands: a.ImpurityBands,
		Issues:        a.Issues,
	}
	if out.Rows == nil {
		out.Rows = []pipeline.TableRow{}
	}
	if out.Entries == nil {
		out.Entries = []pipeline.EntryResult{}
	}
	if out.ImpurityBands == nil {
		out.ImpurityBands = []nmr.Band{}
	}
	if out.Issues == nil {
		out.Issues = []string{}
	}
	if includeSpectrum {
		s := a.Spectrum
		out.Spectrum = &s
	}
	return out
}

// Validate handles POST /api/v1/validate.
func (h *AnalysisHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	issues := h.svc.Validate(r.Context(), req.Text)
	if issues == nil {
		issues = []string{}
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Issues: issues, Count: len(issues)})
}

// List handles GET /api/v1/analyses.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.History(r.Context(), parseLimit(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	if records == nil {
		records = []*domain.Record{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Items: records, Count: len(records)})
}

// Get handles GET /api/v1/analyses/{id}.
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Solvents handles GET /api/v1/solvents.
func (h *AnalysisHandler) Solvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SolventsResponse{Solvents: h.svc.Solvents()})
}

//Personal.AI order the ending

// Package analysis is the application service between the transports (HTTP,
// CLI) and the pure report pipeline.  It adds request limits, caching,
// history, spectrum archiving and event publication around a pipeline run.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	domain "github.com/turtacn/NMReportChecker/internal/domain/analysis"
	"github.com/turtacn/NMReportChecker/internal/config"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NMReportChecker/internal/intelligence/classifier"
	"github.com/turtacn/NMReportChecker/internal/intelligence/format_validator"
	"github.com/turtacn/NMReportChecker/internal/intelligence/pipeline"
	"github.com/turtacn/NMReportChecker/internal/intelligence/spectrum"
	"github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/common"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

// Service defines the analysis operations exposed to transports.
type Service interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*Result, error)
	Validate(ctx context.Context, text string) []string
	History(ctx context.Context, limit int) ([]*domain.Record, error)
	Get(ctx context.Context, id string) (*domain.Record, error)
	Solvents() []SolventTable
}

// Cache stores pipeline results keyed by report and render settings.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) (hit bool, err error)
}

// Archive stores rendered spectra and signs download links for them.
type Archive interface {
	Store(ctx context.Context, analysisID string, s nmr.Spectrum) (key string, err error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Publisher announces finished analyses.
type Publisher interface {
	PublishAnalysisCompleted(ctx context.Context, evt *domain.AnalysisCompletedEvent) error
}

// Range is a ppm interval; Lo and Hi may be given in either order.
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// AnalyzeRequest is one report to analyze.  Zero overrides use the
// configured render settings.
type AnalyzeRequest struct {
	Text    string
	Range   *Range
	Points  int
	Archive bool
}

// Result is a finished analysis.
type Result struct {
	ID         string              `json:"id"`
	CreatedAt  time.Time           `json:"created_at"`
	Cached     bool                `json:"cached"`
	DurationMS int64               `json:"duration_ms"`
	ArchiveKey string              `json:"archive_key,omitempty"`
	ArchiveURL string              `json:"archive_url,omitempty"`
	Rows       []pipeline.TableRow `json:"rows"`
	Analysis   *pipeline.Analysis  `json:"analysis"`
}

// SolventTable is the impurity table for one solvent.
type SolventTable struct {
	Solvent string             `json:"solvent"`
	Peaks   []nmr.ImpurityPeak `json:"peaks"`
}

// Config is the subset of the application config the service reads.
type Config struct {
	Render        config.RenderConfig
	Classifier    config.ClassifierConfig
	Validator     config.ValidatorConfig
	Analysis      config.AnalysisConfig
	PresignExpiry time.Duration
}

// ConfigFrom extracts the service config from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Render:        cfg.Render,
		Classifier:    cfg.Classifier,
		Validator:     cfg.Validator,
		Analysis:      cfg.Analysis,
		PresignExpiry: cfg.MinIO.PresignExpiry,
	}
}

// Deps are the optional collaborators.  Nil members disable the feature.
type Deps struct {
	Cache      Cache
	Repository domain.Repository
	Archive    Archive
	Publisher  Publisher
	Metrics    *prometheus.NMRMetrics
	Logger     logging.Logger
}

type serviceImpl struct {
	cfg        Config
	render     []spectrum.Option
	classifier *classifier.Classifier
	validator  *format_validator.Validator
	pipeline   *pipeline.Pipeline

	cache     Cache
	repo      domain.Repository
	archive   Archive
	publisher Publisher
	metrics   *prometheus.NMRMetrics
	logger    logging.Logger
}

// NewService builds the service.  It fails with NMR_001 when the configured
// render settings are invalid.
func NewService(cfg Config, deps Deps) (Service, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		cfg:        cfg,
		render:     RenderOptions(cfg.Render),
		classifier: classifier.New(classifier.WithTolerance(cfg.Classifier.TolerancePPM)),
		validator:  format_validator.New(format_validator.WithStrictCouplingCount(cfg.Validator.StrictCouplingCount)),
		cache:      deps.Cache,
		repo:       deps.Repository,
		archive:    deps.Archive,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     logger.Named("analysis"),
	}
	p, err := s.newPipeline(nil)
	if err != nil {
		return nil, err
	}
	s.pipeline = p
	return s, nil
}

// RenderOptions converts the render config section to renderer options.
func RenderOptions(c config.RenderConfig) []spectrum.Option {
	return []spectrum.Option{
		spectrum.WithRange(c.LoPPM, c.HiPPM),
		spectrum.WithPoints(c.Points),
		spectrum.WithBaseLineWidth(c.BaseLineWidth),
		spectrum.WithTailEpsilon(c.TailEpsilon),
		spectrum.WithMinWindow(c.MinWindow),
		spectrum.WithPadding(c.PaddingPPM),
		spectrum.WithBroadeningFactor(c.BroadeningFactor),
	}
}

func (s *serviceImpl) newPipeline(extra []spectrum.Option) (*pipeline.Pipeline, error) {
	opts := make([]spectrum.Option, 0, len(s.render)+len(extra))
	opts = append(opts, s.render...)
	opts = append(opts, extra...)
	return pipeline.New(
		pipeline.WithRenderOptions(opts...),
		pipeline.WithClassifier(s.classifier),
		pipeline.WithValidator(s.validator),
	)
}

// pipelineFor returns the shared pipeline, or a per-request one when req
// overrides the render target.
func (s *serviceImpl) pipelineFor(req *AnalyzeRequest) (*pipeline.Pipeline, error) {
	var extra []spectrum.Option
	if req.Range != nil {
		extra = append(extra, spectrum.WithRange(req.Range.Lo, req.Range.Hi))
	}
	if req.Points != 0 {
		extra = append(extra, spectrum.WithPoints(req.Points))
	}
	if len(extra) == 0 {
		return s.pipeline, nil
	}
	return s.newPipeline(extra)
}

func (s *serviceImpl) checkText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New(errors.ErrCodeReportEmpty, "report text is empty")
	}
	if max := s.cfg.Analysis.MaxReportBytes; max > 0 && len(text) > max {
		return errors.New(errors.ErrCodeReportTooLarge, "report text is too large").
			WithDetail(fmt.Sprintf("%d bytes exceeds limit of %d", len(text), max))
	}
	return nil
}

func (s *serviceImpl) Analyze(ctx context.Context, req *AnalyzeRequest) (*Result, error) {
	if req == nil {
		return nil, errors.InvalidParam("request is nil")
	}
	if err := s.checkText(req.Text); err != nil {
		prometheus.RecordAnalysisStatus(s.metrics, prometheus.StatusRejected)
		return nil, err
	}
	p, err := s.pipelineFor(req)
	if err != nil {
		prometheus.RecordAnalysisStatus(s.metrics, prometheus.StatusRejected)
		return nil, err
	}

	start := time.Now()
	a, cached := s.run(ctx, p, req.Text)
	took := time.Since(start)

	rec := domain.NewRecord(common.NewID(), req.Text, a, took)
	log := s.logger.With(logging.AnalysisID(rec.ID.String()))
	log.Debug("pipeline finished", logging.Bool("cached", cached), logging.Duration("took", took))

	res := &Result{
		ID:         rec.ID.String(),
		CreatedAt:  rec.CreatedAt,
		Cached:     cached,
		DurationMS: rec.DurationMS,
		Rows:       rec.Rows,
		Analysis:   a,
	}

	if req.Archive {
		if err := s.archiveSpectrum(ctx, rec, res, log); err != nil {
			prometheus.RecordAnalysisStatus(s.metrics, prometheus.StatusFailed)
			return nil, err
		}
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, rec); err != nil {
			log.Warn("failed to save analysis history", logging.Err(err))
			prometheus.RecordSideEffectError(s.metrics, "repository")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishAnalysisCompleted(ctx, domain.NewAnalysisCompletedEvent(rec)); err != nil {
			log.Warn("failed to publish analysis event", logging.Err(err))
			prometheus.RecordSideEffectError(s.metrics, "publisher")
		}
	}

	if cached {
		prometheus.RecordAnalysisStatus(s.metrics, prometheus.StatusCached)
	} else {
		prometheus.RecordAnalysis(s.metrics, a.Summary.Solvent, a.Summary.TotalEntries,
			a.Summary.ImpurityCount, a.Summary.IssueCount, took)
	}

	log.Info("analysis completed",
		logging.Int("entries", a.Summary.TotalEntries),
		logging.Int("impurities", a.Summary.ImpurityCount),
		logging.Int("issues", a.Summary.IssueCount),
		logging.Duration("duration", took))
	return res, nil
}

// run executes the pipeline through the cache when one is configured.  A
// cache failure falls back to a direct run.
func (s *serviceImpl) run(ctx context.Context, p *pipeline.Pipeline, text string) (*pipeline.Analysis, bool) {
	if s.cache == nil {
		return p.Run(text), false
	}
	var a pipeline.Analysis
	hit, err := s.cache.GetOrSet(ctx, cacheKey(text, p), &a, s.cfg.Analysis.CacheTTL,
		func(context.Context) (interface{}, error) { return p.Run(text), nil })
	if err != nil {
		s.logger.Warn("analysis cache unavailable", logging.Err(err))
		prometheus.RecordSideEffectError(s.metrics, "cache")
		return p.Run(text), false
	}
	prometheus.RecordCacheAccess(s.metrics, "analysis", hit)
	return &a, hit
}

func (s *serviceImpl) archiveSpectrum(ctx context.Context, rec *domain.Record, res *Result, log logging.Logger) error {
	if s.archive == nil {
		return errors.New(errors.ErrCodeFeatureDisabled, "spectrum archive is not configured")
	}
	key, err := s.archive.Store(ctx, rec.ID.String(), res.Analysis.Spectrum)
	if err != nil {
		log.Error("spectrum archive failed", logging.Err(err))
		if errors.IsCode(err, errors.ErrCodeArchiveFailed) {
			return err
		}
		return errors.Wrap(err, errors.ErrCodeArchiveFailed, "archive spectrum")
	}
	rec.ArchiveKey = key
	res.ArchiveKey = key

	url, err := s.archive.PresignedURL(ctx, key, s.cfg.PresignExpiry)
	if err != nil {
		log.Warn("failed to presign spectrum URL", logging.String("key", key), logging.Err(err))
		prometheus.RecordSideEffectError(s.metrics, "archive")
		return nil
	}
	res.ArchiveURL = url
	return nil
}

// cacheKey hashes the text with every setting that changes the result.
func cacheKey(text string, p *pipeline.Pipeline) string {
	h := sha256.New()
	h.Write([]byte(text))
	fmt.Fprintf(h, "\x00%+v", p.Renderer().Config())
	fmt.Fprintf(h, "\x00%v", p.Classifier().Tolerance())
	fmt.Fprintf(h, "\x00%v", p.Validator().Strict())
	return "analysis:" + hex.EncodeToString(h.Sum(nil))
}

func (s *serviceImpl) Validate(_ context.Context, text string) []string {
	issues := s.validator.Validate(text)
	if issues == nil {
		issues = []string{}
	}
	return issues
}

func (s *serviceImpl) History(ctx context.Context, limit int) ([]*domain.Record, error) {
	if s.repo == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "analysis history is not configured")
	}
	if limit <= 0 {
		limit = s.cfg.Analysis.HistoryLimit
	}
	return s.repo.List(ctx, limit)
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*domain.Record, error) {
	if s.repo == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "analysis history is not configured")
	}
	aid := common.ID(id)
	if err := aid.Validate(); err != nil {
		return nil, errors.InvalidParam("invalid analysis id").WithCause(err)
	}
	return s.repo.GetByID(ctx, aid)
}

func (s *serviceImpl) Solvents() []SolventTable {
	names := classifier.Solvents()
	out := make([]SolventTable, 0, len(names))
	for _, name := range names {
		out = append(out, SolventTable{Solvent: name, Peaks: classifier.ImpurityTable(name)})
	}
	return out
}

//Personal.AI order the ending

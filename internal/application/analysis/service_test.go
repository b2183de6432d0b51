package analysis

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/NMReportChecker/internal/config"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NMReportChecker/internal/testutil"
	"github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

const report = "1H NMR (400 MHz, CDCl3) δ 7.26 (s, 1H), 1.20 (d, J = 6.8 Hz, 6H)"

func testConfig() Config {
	cfg := ConfigFrom(config.NewDefaultConfig())
	cfg.Render.Points = 4096
	return cfg
}

type ServiceTestSuite struct {
	suite.Suite
	cache     *memoryCache
	repo      *memoryRepo
	archive   *memoryArchive
	publisher *recordingPublisher
	logger    *testutil.MockLogger
	collector prometheus.MetricsCollector
	svc       Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.cache = newMemoryCache()
	s.repo = newMemoryRepo()
	s.archive = newMemoryArchive()
	s.publisher = &recordingPublisher{}
	s.logger = testutil.NewMockLogger()

	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "svc"}, nil)
	s.Require().NoError(err)
	s.collector = c

	svc, err := NewService(testConfig(), Deps{
		Cache:      s.cache,
		Repository: s.repo,
		Archive:    s.archive,
		Publisher:  s.publisher,
		Metrics:    prometheus.NewNMRMetrics(c),
		Logger:     s.logger,
	})
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceTestSuite) analyze(req *AnalyzeRequest) *Result {
	res, err := s.svc.Analyze(context.Background(), req)
	s.Require().NoError(err)
	return res
}

func (s *ServiceTestSuite) TestAnalyze() {
	res := s.analyze(&AnalyzeRequest{Text: report})

	_, err := uuid.Parse(res.ID)
	s.NoError(err)
	s.False(res.Cached)
	s.Require().Len(res.Rows, 2)
	s.Equal("IMP Trace: CHCl3 (residual)", res.Rows[0].Identity)
	s.Equal(2, res.Analysis.Summary.TotalEntries)
	s.Equal(1, res.Analysis.Summary.ImpurityCount)
	s.Equal(4096, res.Analysis.Spectrum.Len())
	s.Empty(res.ArchiveKey)

	rec, err := s.svc.Get(context.Background(), res.ID)
	s.Require().NoError(err)
	s.Equal(report, rec.ReportText)
	s.Equal(res.Rows, rec.Rows)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(res.ID, s.publisher.events[0].AggregateID())
	s.Equal([]string{"Trace: CHCl3 (residual)"}, s.publisher.events[0].Impurities)

	s.True(s.logger.HasMessage("info", "analysis completed"))
	id, ok := s.logger.FieldValue("analysis completed", "analysis_id")
	s.True(ok)
	s.Equal(res.ID, id)
}

func (s *ServiceTestSuite) TestAnalyze_CacheHit() {
	first := s.analyze(&AnalyzeRequest{Text: report})
	second := s.analyze(&AnalyzeRequest{Text: report})

	s.False(first.Cached)
	s.True(second.Cached)
	s.NotEqual(first.ID, second.ID)
	s.Equal(1, s.cache.loads)
	s.Equal(first.Analysis.Summary, second.Analysis.Summary)
	s.Equal(first.Rows, second.Rows)
	s.Equal(first.Analysis.Spectrum, second.Analysis.Spectrum)
	s.Len(s.repo.records, 2)
}

func (s *ServiceTestSuite) TestAnalyze_OverridesBypassSharedCacheEntry() {
	s.analyze(&AnalyzeRequest{Text: report})
	res := s.analyze(&AnalyzeRequest{Text: report, Points: 2048, Range: &Range{Lo: 0, Hi: 10}})

	s.False(res.Cached)
	s.Equal(2048, res.Analysis.Spectrum.Len())
	s.Equal(nmr.View{Lo: 0, Hi: 10}, res.Analysis.View)
	s.Equal(2, s.cache.loads)
}

func (s *ServiceTestSuite) TestAnalyze_CacheFailureFallsBack() {
	s.cache.err = stderrors.New("redis down")
	res := s.analyze(&AnalyzeRequest{Text: report})
	s.False(res.Cached)
	s.Equal(2, res.Analysis.Summary.TotalEntries)
	s.True(s.logger.HasMessage("warn", "analysis cache unavailable"))
}

func (s *ServiceTestSuite) TestAnalyze_Rejections() {
	tests := []struct {
		name string
		req  *AnalyzeRequest
		code errors.ErrorCode
	}{
		{"nil request", nil, errors.ErrCodeBadRequest},
		{"empty", &AnalyzeRequest{Text: ""}, errors.ErrCodeReportEmpty},
		{"whitespace", &AnalyzeRequest{Text: " \n\t"}, errors.ErrCodeReportEmpty},
		{"too large", &AnalyzeRequest{Text: strings.Repeat("x", config.DefaultMaxReportBytes+1)}, errors.ErrCodeReportTooLarge},
		{"bad points", &AnalyzeRequest{Text: report, Points: 1}, errors.ErrCodeRenderParamsInvalid},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Analyze(context.Background(), tt.req)
			s.Require().Error(err)
			s.True(errors.IsCode(err, tt.code), "got %v", err)
		})
	}
	s.Empty(s.repo.records)
}

func (s *ServiceTestSuite) TestAnalyze_Archive() {
	res := s.analyze(&AnalyzeRequest{Text: report, Archive: true})
	s.Equal("spectra/"+res.ID+".csv", res.ArchiveKey)
	s.Contains(res.ArchiveURL, res.ArchiveKey)
	s.Contains(res.ArchiveURL, "expires=15m0s")
	s.Equal(res.Analysis.Spectrum, s.archive.stored[res.ArchiveKey])

	rec, err := s.svc.Get(context.Background(), res.ID)
	s.Require().NoError(err)
	s.Equal(res.ArchiveKey, rec.ArchiveKey)
	s.Equal(res.ArchiveKey, s.publisher.events[0].ArchiveKey)
}

func (s *ServiceTestSuite) TestAnalyze_ArchiveFailure() {
	s.archive.storeErr = stderrors.New("bucket gone")
	_, err := s.svc.Analyze(context.Background(), &AnalyzeRequest{Text: report, Archive: true})
	s.Require().Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeArchiveFailed))
	s.Empty(s.repo.records)
	s.Empty(s.publisher.events)
}

func (s *ServiceTestSuite) TestAnalyze_PresignFailureKeepsResult() {
	s.archive.presignErr = stderrors.New("clock skew")
	res := s.analyze(&AnalyzeRequest{Text: report, Archive: true})
	s.NotEmpty(res.ArchiveKey)
	s.Empty(res.ArchiveURL)
}

func (s *ServiceTestSuite) TestAnalyze_SideEffectFailuresAreLogged() {
	s.repo.saveErr = stderrors.New("db down")
	s.publisher.err = stderrors.New("broker down")

	res := s.analyze(&AnalyzeRequest{Text: report})
	s.NotEmpty(res.ID)
	s.True(s.logger.HasMessage("warn", "failed to save analysis history"))
	s.True(s.logger.HasMessage("warn", "failed to publish analysis event"))

	out, err := testutilGather(s.collector, "svc_side_effect_errors_total")
	s.Require().NoError(err)
	s.Equal(2, out)
}

func (s *ServiceTestSuite) TestHistoryAndGet() {
	first := s.analyze(&AnalyzeRequest{Text: report})
	for _, rec := range s.repo.records {
		rec.CreatedAt = rec.CreatedAt.Add(-time.Hour)
	}
	second := s.analyze(&AnalyzeRequest{Text: "δ 3.00 (s, 3H)"})

	list, err := s.svc.History(context.Background(), 0)
	s.Require().NoError(err)
	s.Equal(config.DefaultHistoryLimit, s.repo.lastLimit)
	s.Require().Len(list, 2)
	s.Equal(second.ID, list[0].ID.String())
	s.Equal(first.ID, list[1].ID.String())

	_, err = s.svc.Get(context.Background(), "not-a-uuid")
	s.True(errors.IsCode(err, errors.ErrCodeBadRequest))

	_, err = s.svc.Get(context.Background(), uuid.New().String())
	s.True(errors.IsCode(err, errors.ErrCodeAnalysisNotFound))
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func testutilGather(c prometheus.MetricsCollector, name string) (int, error) {
	families, err := c.Gatherer().Gather()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += int(m.GetCounter().GetValue())
		}
	}
	return total, nil
}

func TestService_WithoutOptionalDeps(t *testing.T) {
	svc, err := NewService(testConfig(), Deps{})
	require.NoError(t, err)

	res, err := svc.Analyze(context.Background(), &AnalyzeRequest{Text: report})
	require.NoError(t, err)
	assert.False(t, res.Cached)

	_, err = svc.Analyze(context.Background(), &AnalyzeRequest{Text: report, Archive: true})
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))

	_, err = svc.History(context.Background(), 10)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))
	_, err = svc.Get(context.Background(), uuid.New().String())
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))
}

func TestService_Validate(t *testing.T) {
	svc, err := NewService(testConfig(), Deps{})
	require.NoError(t, err)

	assert.Equal(t, []string{}, svc.Validate(context.Background(), report))
	assert.NotEmpty(t, svc.Validate(context.Background(), "7.26 (s, 1H)"))
}

func TestService_StrictValidator(t *testing.T) {
	cfg := testConfig()
	cfg.Validator.StrictCouplingCount = true
	svc, err := NewService(cfg, Deps{})
	require.NoError(t, err)

	issues := svc.Validate(context.Background(), "1H NMR (400 MHz, CDCl3) δ 7.10 (d, J = 8.0, 2.0 Hz, 1H)")
	assert.Len(t, issues, 1)
}

func TestService_Solvents(t *testing.T) {
	svc, err := NewService(testConfig(), Deps{})
	require.NoError(t, err)

	tables := svc.Solvents()
	require.NotEmpty(t, tables)
	var found bool
	for _, tbl := range tables {
		if tbl.Solvent == "CDCl3" {
			found = true
			assert.NotEmpty(t, tbl.Peaks)
		}
	}
	assert.True(t, found)
}

func TestNewService_InvalidRender(t *testing.T) {
	cfg := testConfig()
	cfg.Render.Points = 1
	_, err := NewService(cfg, Deps{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRenderParamsInvalid))
}

func TestRenderOptions(t *testing.T) {
	cfg := config.NewDefaultConfig().Render
	cfg.PaddingPPM = 0
	svc, err := NewService(Config{Render: cfg}, Deps{})
	require.NoError(t, err)
	got := svc.(*serviceImpl).pipeline.Renderer().Config()
	assert.Equal(t, 0.0, got.PaddingPPM)
	assert.Equal(t, cfg.Points, got.Points)
}

//Personal.AI order the ending

package analysis

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	domain "github.com/turtacn/NMReportChecker/internal/domain/analysis"
	"github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/common"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
	loads   int
}

func newMemoryCache() *memoryCache { return &memoryCache{entries: map[string][]byte{}} }

func (c *memoryCache) GetOrSet(ctx context.Context, key string, dest interface{}, _ time.Duration, loader func(ctx context.Context) (interface{}, error)) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if data, ok := c.entries[key]; ok {
		return true, json.Unmarshal(data, dest)
	}
	v, err := loader(ctx)
	if err != nil {
		return false, err
	}
	c.loads++
	data, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	c.entries[key] = data
	return false, json.Unmarshal(data, dest)
}

type memoryRepo struct {
	mu        sync.Mutex
	records   map[common.ID]*domain.Record
	saveErr   error
	lastLimit int
}

func newMemoryRepo() *memoryRepo { return &memoryRepo{records: map[common.ID]*domain.Record{}} }

func (r *memoryRepo) Save(_ context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id common.ID) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeAnalysisNotFound, "analysis not found")
	}
	return rec, nil
}

func (r *memoryRepo) List(_ context.Context, limit int) ([]*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit
	out := make([]*domain.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memoryArchive struct {
	stored     map[string]nmr.Spectrum
	storeErr   error
	presignErr error
}

func newMemoryArchive() *memoryArchive { return &memoryArchive{stored: map[string]nmr.Spectrum{}} }

func (a *memoryArchive) Store(_ context.Context, id string, s nmr.Spectrum) (string, error) {
	if a.storeErr != nil {
		return "", a.storeErr
	}
	key := "spectra/" + id + ".csv"
	a.stored[key] = s
	return key, nil
}

func (a *memoryArchive) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	if a.presignErr != nil {
		return "", a.presignErr
	}
	return "http://minio.local/" + key + "?expires=" + expiry.String(), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.AnalysisCompletedEvent
	err    error
}

func (p *recordingPublisher) PublishAnalysisCompleted(_ context.Context, evt *domain.AnalysisCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

//Personal.AI order the ending

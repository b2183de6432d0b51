// Package analysis defines the persisted record of one analyzed report and
// the repository and event contracts around it.
package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/turtacn/NMReportChecker/internal/intelligence/pipeline"
	"github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/common"
)

// Record is the history entry for one analysis.  The spectrum itself is not
// stored; ArchiveKey points at the CSV when the caller asked for an archive.
type Record struct {
	ID         common.ID           `json:"id"`
	CreatedAt  time.Time           `json:"created_at"`
	ReportHash string              `json:"report_hash"`
	ReportText string              `json:"report_text"`
	Summary    pipeline.Summary    `json:"summary"`
	Rows       []pipeline.TableRow `json:"rows"`
	Issues     []string            `json:"issues"`
	ArchiveKey string              `json:"archive_key,omitempty"`
	DurationMS int64               `json:"duration_ms"`
}

// NewRecord builds a record for a finished analysis.
func NewRecord(id common.ID, text string, a *pipeline.Analysis, took time.Duration) *Record {
	issues := a.Issues
	if issues == nil {
		issues = []string{}
	}
	return &Record{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		ReportHash: HashReport(text),
		ReportText: text,
		Summary:    a.Summary,
		Rows:       a.Rows(),
		Issues:     issues,
		DurationMS: took.Milliseconds(),
	}
}

// Validate checks the fields the repository relies on.
func (r *Record) Validate() error {
	if err := r.ID.Validate(); err != nil {
		return errors.InvalidParam("invalid record id").WithCause(err)
	}
	if strings.TrimSpace(r.ReportText) == "" {
		return errors.New(errors.ErrCodeReportEmpty, "record has no report text")
	}
	if r.CreatedAt.IsZero() {
		return errors.InvalidParam("record has no creation time")
	}
	return nil
}

// Impurities returns the identity labels of rows flagged as impurities.
func (r *Record) Impurities() []string {
	var out []string
	for _, row := range r.Rows {
		if row.Impurity {
			out = append(out, strings.TrimPrefix(row.Identity, pipeline.ImpurityBadge+" "))
		}
	}
	return out
}

// HashReport is the hex SHA-256 of the report text.
func HashReport(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

//Personal.AI order the ending

// Package repositories holds the PostgreSQL implementations of domain
// repository interfaces.
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/NMReportChecker/internal/domain/analysis"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/database/postgres"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/pkg/errors"
	"github.com/turtacn/NMReportChecker/pkg/types/common"
)

// maxListLimit caps List regardless of the caller's limit.
const maxListLimit = 500

const selectColumns = `
	id, created_at, report_hash, report_text, summary, rows, issues,
	archive_key, duration_ms`

// AnalysisRepository stores analysis records in the analyses table.  The
// summary is kept as JSONB with its counters copied to plain columns for
// querying.
type AnalysisRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ analysis.Repository = (*AnalysisRepository)(nil)

// NewAnalysisRepository creates a repository over pool.
func NewAnalysisRepository(pool *pgxpool.Pool, logger logging.Logger) *AnalysisRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalysisRepository{pool: pool, logger: logger.Named("analysis_repo")}
}

// Save inserts r in its own transaction.  A duplicate id is reported as a
// conflict.
func (r *AnalysisRepository) Save(ctx context.Context, rec *analysis.Record) error {
	if rec == nil {
		return errors.InvalidParam("record is nil")
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	summaryJSON, err := json.Marshal(rec.Summary)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal summary")
	}
	rowsJSON, err := json.Marshal(rec.Rows)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal rows")
	}
	issues := rec.Issues
	if issues == nil {
		issues = []string{}
	}

	const q = `
		INSERT INTO analyses (
			id, created_at, report_hash, report_text,
			frequency_mhz, solvent, total_entries, impurity_count, issue_count, total_protons,
			summary, rows, issues, archive_key, duration_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	s := rec.Summary
	err = postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx, ctx context.Context) error {
		tag, err := tx.Exec(ctx, q,
			rec.ID.String(), rec.CreatedAt, rec.ReportHash, rec.ReportText,
			s.FrequencyMHz, s.Solvent, s.TotalEntries, s.ImpurityCount, s.IssueCount, s.TotalProtons,
			summaryJSON, rowsJSON, issues, rec.ArchiveKey, rec.DurationMS,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errors.New(errors.ErrCodeConflict, "analysis already exists").WithDetail(rec.ID.String())
			}
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "save analysis")
		}
		if tag.RowsAffected() != 1 {
			return errors.New(errors.ErrCodeDatabaseError, "save analysis: no row inserted")
		}
		return nil
	})
	if err != nil {
		if !errors.IsCode(err, errors.ErrCodeConflict) {
			r.logger.Error("failed to save analysis", logging.AnalysisID(rec.ID.String()), logging.Err(err))
		}
		return err
	}
	r.logger.Debug("analysis saved", logging.AnalysisID(rec.ID.String()))
	return nil
}

// GetByID loads one record.
func (r *AnalysisRepository) GetByID(ctx context.Context, id common.ID) (*analysis.Record, error) {
	if err := id.Validate(); err != nil {
		return nil, errors.InvalidParam("invalid analysis id").WithCause(err)
	}
	q := `SELECT ` + selectColumns + ` FROM analyses WHERE id = $1`
	rec, err := scanRecord(r.pool.QueryRow(ctx, q, id.String()))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeAnalysisNotFound, "analysis not found").WithDetail(id.String())
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "get analysis")
	}
	return rec, nil
}

// List returns up to limit records, newest first.  A non-positive limit
// falls back to maxListLimit.
func (r *AnalysisRepository) List(ctx context.Context, limit int) ([]*analysis.Record, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	q := `SELECT ` + selectColumns + ` FROM analyses ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list analyses")
	}
	defer rows.Close()

	out := make([]*analysis.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan analysis")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterate analyses")
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*analysis.Record, error) {
	var (
		rec         analysis.Record
		id          string
		summaryJSON []byte
		rowsJSON    []byte
	)
	if err := row.Scan(
		&id, &rec.CreatedAt, &rec.ReportHash, &rec.ReportText,
		&summaryJSON, &rowsJSON, &rec.Issues, &rec.ArchiveKey, &rec.DurationMS,
	); err != nil {
		return nil, err
	}
	rec.ID = common.ID(id)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if err := json.Unmarshal(summaryJSON, &rec.Summary); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rowsJSON, &rec.Rows); err != nil {
		return nil, err
	}
	if rec.Issues == nil {
		rec.Issues = []string{}
	}
	return &rec, nil
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == "23505"
}

//Personal.AI order the ending

package analysis

import (
	"context"

	"github.com/turtacn/NMReportChecker/pkg/types/common"
)

// Repository persists analysis history.
type Repository interface {
	// Save inserts a new record.
	Save(ctx context.Context, r *Record) error
	// GetByID returns ErrCodeAnalysisNotFound when no record has the id.
	GetByID(ctx context.Context, id common.ID) (*Record, error)
	// List returns the newest records first.
	List(ctx context.Context, limit int) ([]*Record, error)
}

//Personal.AI order the ending

package student

import (
	"context"

	"github.com/google/uuid"
)

// Repository methods are scoped by userID; rows owned by someone else
// behave as missing.
type Repository interface {
	// List returns summaries ordered by created_at descending. A non-empty
	// search filters by case-insensitive substring of name or email.
	List(ctx context.Context, userID uuid.UUID, search string) ([]*Summary, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*Student, error)
	GetSummary(ctx context.Context, userID, id uuid.UUID) (*Summary, error)
	Create(ctx context.Context, s *Student) error
	Update(ctx context.Context, userID, id uuid.UUID, patch *Patch) (*Student, error)
	// Delete removes the student and, through the foreign key, its
	// measurements.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

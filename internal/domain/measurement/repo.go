package measurement

import (
	"context"

	"github.com/google/uuid"
)

// Repository methods are scoped by userID; rows owned by someone else
// behave as missing.
type Repository interface {
	ListByStudent(ctx context.Context, userID, studentID uuid.UUID) ([]*Measurement, error)
	Latest(ctx context.Context, userID, studentID uuid.UUID) (*Measurement, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*Measurement, error)
	// Create fails with db.ErrNotFound when m.StudentID is not owned by
	// m.UserID.
	Create(ctx context.Context, m *Measurement) error
	Update(ctx context.Context, userID, id uuid.UUID, patch *Patch) (*Measurement, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

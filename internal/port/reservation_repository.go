package port

import (
	"context"

	"github.com/okabakkie/marketplace/internal/core/domain"
)

type ReservationRepository interface {
	// Create persists a new reservation, assigning a freshly generated
	// reservation number. Regenerates on a number collision up to a small
	// fixed bound before failing with ErrConflict.
	Create(ctx context.Context, r *domain.Reservation) error

	// GetByID retrieves a reservation, ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// ListByPhone returns a customer's reservations, most recent first.
	ListByPhone(ctx context.Context, phone string) ([]domain.Reservation, error)

	// ListAll returns every reservation, most recent first.
	ListAll(ctx context.Context) ([]domain.Reservation, error)

	// UpdateStatus performs a transactional compare-and-set of the status
	// validated against the state machine, returning the updated record.
	// Fails with ErrInvalidTransition when the change is not allowed.
	UpdateStatus(ctx context.Context, id string, next domain.Status) (*domain.Reservation, error)
}

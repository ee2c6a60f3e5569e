package port

import (
	"context"

	"github.com/okabakkie/marketplace/internal/core/domain"
)

type VendorRepository interface {
	// Create persists a new vendor record.
	Create(ctx context.Context, v *domain.Vendor) error

	// Update overwrites an existing vendor record, except available_count
	// which only the availability operations below may write.
	Update(ctx context.Context, v *domain.Vendor) error

	// GetByID retrieves a vendor, ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)

	// ListActive returns active vendors that still have bags available.
	ListActive(ctx context.Context) ([]domain.Vendor, error)

	// ListAll returns every vendor including inactive ones.
	ListAll(ctx context.Context) ([]domain.Vendor, error)

	// AdjustAvailability atomically applies available_count += delta,
	// failing with ErrInsufficientInventory if a negative delta would
	// drive the count below zero.
	AdjustAvailability(ctx context.Context, id string, delta int) error

	// OverrideAvailability sets available_count to an absolute value,
	// bypassing reservation accounting. Update never touches the count;
	// this is the only absolute write path.
	OverrideAvailability(ctx context.Context, id string, count int) error

	// DecrementForReservation atomically checks the vendor is active and
	// has at least count bags, decrements, and returns the vendor row
	// read in the same transaction (the price snapshot source).
	DecrementForReservation(ctx context.Context, id string, count int) (*domain.Vendor, error)
}

package port

import (
	"context"

	"github.com/okabakkie/marketplace/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// GetVendorListing returns the cached active-vendor listing; the bool
	// reports whether the cache held a value.
	GetVendorListing(ctx context.Context) ([]domain.Vendor, bool, error)

	// SetVendorListing stores the active-vendor listing with a short TTL.
	SetVendorListing(ctx context.Context, vendors []domain.Vendor) error

	// InvalidateVendorListing drops the cached listing after a vendor or
	// availability mutation.
	InvalidateVendorListing(ctx context.Context) error
}

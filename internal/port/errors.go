package port

import "errors"

// Error kinds shared by the repositories and the services built on them.
// Adapters return these so callers can classify failures with errors.Is
// without knowing the storage engine.
var (
	ErrNotFound              = errors.New("not found")
	ErrVendorInactive        = errors.New("vendor is not accepting reservations")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrConflict              = errors.New("could not generate a unique reservation number")
)

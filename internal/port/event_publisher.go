package port

import (
	"context"
	"time"

	"github.com/okabakkie/marketplace/internal/core/domain"
)

const (
	EventReservationCreated       = "reservation.created"
	EventReservationCancelled     = "reservation.cancelled"
	EventReservationStatusChanged = "reservation.status_changed"
)

// ReservationEvent is published for the notification collaborator after
// a reservation changes. Delivery is best effort and never fails the
// customer-facing operation.
type ReservationEvent struct {
	ID                string        `json:"id"`
	Type              string        `json:"type"`
	ReservationID     string        `json:"reservation_id"`
	ReservationNumber string        `json:"reservation_number"`
	VendorID          string        `json:"vendor_id"`
	CustomerPhone     string        `json:"customer_phone"`
	Status            domain.Status `json:"status"`
	BagCount          int           `json:"bag_count"`
	TotalPrice        float64       `json:"total_price"`
	OccurredAt        time.Time     `json:"occurred_at"`
}

type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, ev ReservationEvent) error
}

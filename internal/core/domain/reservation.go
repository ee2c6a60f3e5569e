package domain

import (
	"fmt"
	"math/rand"
	"time"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusReadyForPickup, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusReadyForPickup:
		return 2
	case StatusCompleted:
		return 3
	}
	return -1
}

// CanTransitionTo validates a status change: cancellation is allowed from
// any non-terminal state, everything else must move strictly forward
// along pending -> confirmed -> ready_for_pickup -> completed.
func (s Status) CanTransitionTo(next Status) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return next.rank() > s.rank()
}

const PaymentCashOnCollection = "cash_on_collection"

// Reservation is a customer's claim on a vendor's surprise bags.
// TotalPrice is snapshotted at creation and never recomputed.
type Reservation struct {
	ID                string    `json:"id"`
	ReservationNumber string    `json:"reservation_number"`
	VendorID          string    `json:"vendor_id"`
	CustomerName      string    `json:"customer_name"`
	CustomerPhone     string    `json:"customer_phone"`
	CustomerEmail     string    `json:"customer_email,omitempty"`
	BagCount          int       `json:"bag_count"`
	TotalPrice        float64   `json:"total_price"`
	Status            Status    `json:"status"`
	PaymentMethod     string    `json:"payment_method"`
	Notes             string    `json:"notes,omitempty"`
	PickupDate        time.Time `json:"pickup_date"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

const reservationNumberCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewReservationNumber builds a human-facing reservation number: the
// "OB" prefix, the creation time in unix milliseconds and a short random
// suffix. Collisions are practically impossible; the store still retries
// a few times on the unique-key check.
func NewReservationNumber() string {
	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = reservationNumberCharset[rand.Intn(len(reservationNumberCharset))]
	}
	return fmt.Sprintf("OB%d%s", time.Now().UnixMilli(), suffix)
}

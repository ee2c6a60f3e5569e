package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/okabakkie/marketplace/internal/core/domain"
	"github.com/okabakkie/marketplace/internal/metrics"
	"github.com/okabakkie/marketplace/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrInvalidBagCount  = errors.New("bag count must be at least 1")
)

// ReservationService guarantees that a vendor's available bag count and
// the reservation records change together across create and cancel,
// despite concurrent requests.
type ReservationService struct {
	vendors      port.VendorRepository
	reservations port.ReservationRepository
	cache        port.CacheRepository
	events       chan port.ReservationEvent
}

func NewReservationService(vendors port.VendorRepository, reservations port.ReservationRepository, cache port.CacheRepository, queueSize int) *ReservationService {
	return &ReservationService{
		vendors:      vendors,
		reservations: reservations,
		cache:        cache,
		events:       make(chan port.ReservationEvent, queueSize),
	}
}

type CreateReservationInput struct {
	RequestID     string
	VendorID      string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	BagCount      int
	Notes         string
}

// CreateReservation decrements the vendor's availability and persists the
// reservation as one effective transaction: the availability check and
// decrement happen in a single atomic storage operation, and a store
// fault after the decrement triggers a compensating increment. The vendor
// snapshot read alongside the decrement is returned so callers do not
// re-query a row that may have changed since.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (*domain.Reservation, *domain.Vendor, error) {
	if in.BagCount < 1 {
		return nil, nil, ErrInvalidBagCount
	}

	if in.RequestID != "" {
		key := "reservation:request:" + in.RequestID
		ok, err := s.cache.SetIdempotency(ctx, key)
		if err != nil {
			return nil, nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, nil, ErrDuplicateRequest
		}
	}

	vendor, err := s.vendors.DecrementForReservation(ctx, in.VendorID, in.BagCount)
	if err != nil {
		s.countRejection(err)
		return nil, nil, err
	}

	// The decrement has been applied; finish or compensate even if the
	// caller goes away mid-request.
	ctx = context.WithoutCancel(ctx)

	now := time.Now()
	resv := &domain.Reservation{
		ID:            uuid.NewString(),
		VendorID:      vendor.ID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		CustomerEmail: in.CustomerEmail,
		BagCount:      in.BagCount,
		TotalPrice:    vendor.SurpriseBag.Price * float64(in.BagCount),
		Status:        domain.StatusPending,
		PaymentMethod: domain.PaymentCashOnCollection,
		Notes:         in.Notes,
		PickupDate:    now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.reservations.Create(ctx, resv); err != nil {
		if compErr := s.vendors.AdjustAvailability(ctx, vendor.ID, in.BagCount); compErr != nil {
			log.WithFields(log.Fields{
				"vendor_id":      vendor.ID,
				"bag_count":      in.BagCount,
				"reconciliation": true,
			}).Errorf("availability restore failed after reservation fault: %v", compErr)
		}
		return nil, nil, fmt.Errorf("persist reservation: %w", err)
	}

	s.invalidateListing(ctx)
	s.emit(port.EventReservationCreated, resv)

	metrics.ReservationsCreated.Inc()
	metrics.BagsReserved.Add(float64(in.BagCount))
	metrics.VendorAvailability.WithLabelValues(vendor.ID).Set(float64(vendor.SurpriseBag.AvailableCount))

	return resv, vendor, nil
}

// CancelReservation moves a non-terminal reservation to cancelled and
// restores the vendor's availability by the reservation's original bag
// count. A vendor deleted out-of-band does not fail the cancellation;
// the skipped restore is logged as a reconciliation concern.
func (s *ReservationService) CancelReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	resv, err := s.reservations.UpdateStatus(ctx, id, domain.StatusCancelled)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)

	if err := s.vendors.AdjustAvailability(ctx, resv.VendorID, resv.BagCount); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			log.WithFields(log.Fields{
				"reservation_id": resv.ID,
				"vendor_id":      resv.VendorID,
				"reconciliation": true,
			}).Warn("vendor missing during cancellation, availability not restored")
		} else {
			log.WithFields(log.Fields{
				"reservation_id": resv.ID,
				"vendor_id":      resv.VendorID,
				"bag_count":      resv.BagCount,
				"reconciliation": true,
			}).Errorf("availability restore failed during cancellation: %v", err)
		}
	} else {
		metrics.VendorAvailability.WithLabelValues(resv.VendorID).Add(float64(resv.BagCount))
	}

	s.invalidateListing(ctx)
	s.emit(port.EventReservationCancelled, resv)
	metrics.ReservationsCancelled.Inc()

	return resv, nil
}

// AdvanceReservation applies a vendor/admin-driven status change.
// Cancellation is routed through CancelReservation so the inventory
// restore can never be bypassed.
func (s *ReservationService) AdvanceReservation(ctx context.Context, id string, next domain.Status) (*domain.Reservation, error) {
	if !next.Valid() {
		return nil, port.ErrInvalidTransition
	}
	if next == domain.StatusCancelled {
		return s.CancelReservation(ctx, id)
	}

	resv, err := s.reservations.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}

	s.emit(port.EventReservationStatusChanged, resv)
	return resv, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// EventQueue exposes the pending reservation events for the publisher
// workers started by the composition root.
func (s *ReservationService) EventQueue() <-chan port.ReservationEvent {
	return s.events
}

func (s *ReservationService) Close() {
	close(s.events)
}

func (s *ReservationService) emit(eventType string, resv *domain.Reservation) {
	ev := port.ReservationEvent{
		ID:                uuid.NewString(),
		Type:              eventType,
		ReservationID:     resv.ID,
		ReservationNumber: resv.ReservationNumber,
		VendorID:          resv.VendorID,
		CustomerPhone:     resv.CustomerPhone,
		Status:            resv.Status,
		BagCount:          resv.BagCount,
		TotalPrice:        resv.TotalPrice,
		OccurredAt:        time.Now(),
	}

	select {
	case s.events <- ev:
	default:
		log.WithFields(log.Fields{
			"event_type":     eventType,
			"reservation_id": resv.ID,
		}).Warn("event queue full, dropping event")
	}
}

func (s *ReservationService) invalidateListing(ctx context.Context) {
	if err := s.cache.InvalidateVendorListing(ctx); err != nil {
		log.Warnf("vendor listing invalidation failed: %v", err)
	}
}

func (s *ReservationService) countRejection(err error) {
	switch {
	case errors.Is(err, port.ErrInsufficientInventory):
		metrics.ReservationRejections.WithLabelValues("insufficient_inventory").Inc()
	case errors.Is(err, port.ErrVendorInactive):
		metrics.ReservationRejections.WithLabelValues("vendor_inactive").Inc()
	case errors.Is(err, port.ErrNotFound):
		metrics.ReservationRejections.WithLabelValues("vendor_not_found").Inc()
	}
}

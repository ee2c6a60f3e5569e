package service

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/okabakkie/marketplace/internal/core/domain"
	"github.com/okabakkie/marketplace/internal/port"
)

// VendorFilter narrows the public vendor listing. An empty or "all" food
// type matches everything; Search matches the vendor name.
type VendorFilter struct {
	FoodType string
	Search   string
}

// QueryService serves the read-only listing surface. The active-vendor
// base list is read through the cache; a cache fault degrades to the
// database and never fails the read.
type QueryService struct {
	vendors      port.VendorRepository
	reservations port.ReservationRepository
	cache        port.CacheRepository
}

func NewQueryService(vendors port.VendorRepository, reservations port.ReservationRepository, cache port.CacheRepository) *QueryService {
	return &QueryService{
		vendors:      vendors,
		reservations: reservations,
		cache:        cache,
	}
}

func (s *QueryService) ListVendors(ctx context.Context, filter VendorFilter) ([]domain.Vendor, error) {
	base, ok, err := s.cache.GetVendorListing(ctx)
	if err != nil {
		log.Warnf("vendor listing cache read failed: %v", err)
		ok = false
	}

	if !ok {
		base, err = s.vendors.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetVendorListing(ctx, base); err != nil {
			log.Warnf("vendor listing cache write failed: %v", err)
		}
	}

	return applyVendorFilter(base, filter), nil
}

// GetVendor serves the public detail view; inactive vendors are hidden.
func (s *QueryService) GetVendor(ctx context.Context, id string) (*domain.Vendor, error) {
	vendor, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !vendor.IsActive {
		return nil, port.ErrNotFound
	}
	return vendor, nil
}

func (s *QueryService) ListAllVendors(ctx context.Context) ([]domain.Vendor, error) {
	return s.vendors.ListAll(ctx)
}

func (s *QueryService) ListReservationsByPhone(ctx context.Context, phone string) ([]domain.Reservation, error) {
	return s.reservations.ListByPhone(ctx, phone)
}

func (s *QueryService) ListAllReservations(ctx context.Context) ([]domain.Reservation, error) {
	return s.reservations.ListAll(ctx)
}

func applyVendorFilter(vendors []domain.Vendor, filter VendorFilter) []domain.Vendor {
	filtered := make([]domain.Vendor, 0, len(vendors))
	search := strings.ToLower(filter.Search)

	for _, v := range vendors {
		if filter.FoodType != "" && filter.FoodType != "all" && string(v.FoodType) != filter.FoodType {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(v.Name), search) {
			continue
		}
		filtered = append(filtered, v)
	}
	return filtered
}

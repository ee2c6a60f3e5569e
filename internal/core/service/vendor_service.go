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

var ErrInvalidVendor = errors.New("invalid vendor")

// VendorService covers the administrative vendor operations. The direct
// available-count override in UpdateVendor bypasses reservation
// accounting and is the one unguarded path to the inventory counter.
type VendorService struct {
	vendors port.VendorRepository
	cache   port.CacheRepository
}

func NewVendorService(vendors port.VendorRepository, cache port.CacheRepository) *VendorService {
	return &VendorService{vendors: vendors, cache: cache}
}

type CreateVendorInput struct {
	Name               string
	Description        string
	FoodType           domain.FoodType
	Address            domain.Address
	Longitude          float64
	Latitude           float64
	PickupWindow       domain.PickupWindow
	PickupInstructions string
	LogoURL            string
	BannerURL          string
	Price              float64
	OriginalPrice      float64
	AvailableCount     int
}

func (s *VendorService) CreateVendor(ctx context.Context, in CreateVendorInput) (*domain.Vendor, error) {
	if err := validateVendorInput(in); err != nil {
		return nil, err
	}

	now := time.Now()
	vendor := &domain.Vendor{
		ID:                 uuid.NewString(),
		Name:               in.Name,
		Description:        in.Description,
		FoodType:           in.FoodType,
		Address:            in.Address,
		Longitude:          in.Longitude,
		Latitude:           in.Latitude,
		PickupWindow:       in.PickupWindow,
		PickupInstructions: in.PickupInstructions,
		LogoURL:            in.LogoURL,
		BannerURL:          in.BannerURL,
		IsActive:           true,
		SurpriseBag: domain.SurpriseBag{
			Price:          in.Price,
			OriginalPrice:  in.OriginalPrice,
			AvailableCount: in.AvailableCount,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.vendors.Create(ctx, vendor); err != nil {
		return nil, err
	}

	s.invalidateListing(ctx)
	metrics.VendorAvailability.WithLabelValues(vendor.ID).Set(float64(vendor.SurpriseBag.AvailableCount))
	return vendor, nil
}

// VendorUpdate carries a partial vendor edit; nil fields are untouched.
type VendorUpdate struct {
	Name               *string
	Description        *string
	FoodType           *domain.FoodType
	Street             *string
	City               *string
	Region             *string
	Longitude          *float64
	Latitude           *float64
	PickupStart        *string
	PickupEnd          *string
	PickupInstructions *string
	LogoURL            *string
	BannerURL          *string
	IsActive           *bool
	Price              *float64
	OriginalPrice      *float64
	AvailableCount     *int
}

func (s *VendorService) UpdateVendor(ctx context.Context, id string, update VendorUpdate) (*domain.Vendor, error) {
	vendor, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&vendor.Name, update.Name)
	applyString(&vendor.Description, update.Description)
	applyString(&vendor.Address.Street, update.Street)
	applyString(&vendor.Address.City, update.City)
	applyString(&vendor.Address.Region, update.Region)
	applyString(&vendor.PickupWindow.Start, update.PickupStart)
	applyString(&vendor.PickupWindow.End, update.PickupEnd)
	applyString(&vendor.PickupInstructions, update.PickupInstructions)
	applyString(&vendor.LogoURL, update.LogoURL)
	applyString(&vendor.BannerURL, update.BannerURL)

	if update.FoodType != nil {
		if !update.FoodType.Valid() {
			return nil, fmt.Errorf("%w: unknown food type %q", ErrInvalidVendor, *update.FoodType)
		}
		vendor.FoodType = *update.FoodType
	}
	if update.Longitude != nil {
		vendor.Longitude = *update.Longitude
	}
	if update.Latitude != nil {
		vendor.Latitude = *update.Latitude
	}
	if update.IsActive != nil {
		vendor.IsActive = *update.IsActive
	}
	if update.Price != nil {
		if *update.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidVendor)
		}
		vendor.SurpriseBag.Price = *update.Price
	}
	if update.OriginalPrice != nil {
		if *update.OriginalPrice < 0 {
			return nil, fmt.Errorf("%w: original price must not be negative", ErrInvalidVendor)
		}
		vendor.SurpriseBag.OriginalPrice = *update.OriginalPrice
	}
	if update.AvailableCount != nil && *update.AvailableCount < 0 {
		return nil, fmt.Errorf("%w: available count must not be negative", ErrInvalidVendor)
	}

	vendor.UpdatedAt = time.Now()

	// Update never writes available_count, so a reservation decrement
	// committing between the read above and this write survives the patch.
	if err := s.vendors.Update(ctx, vendor); err != nil {
		return nil, err
	}

	if update.AvailableCount != nil {
		// Administrative override: bypasses reservation accounting.
		log.WithFields(log.Fields{
			"vendor_id": vendor.ID,
			"from":      vendor.SurpriseBag.AvailableCount,
			"to":        *update.AvailableCount,
		}).Warn("administrative availability override applied")

		if err := s.vendors.OverrideAvailability(ctx, vendor.ID, *update.AvailableCount); err != nil {
			return nil, err
		}
		vendor.SurpriseBag.AvailableCount = *update.AvailableCount
		metrics.VendorAvailability.WithLabelValues(vendor.ID).Set(float64(vendor.SurpriseBag.AvailableCount))
	}

	s.invalidateListing(ctx)
	return vendor, nil
}

func (s *VendorService) invalidateListing(ctx context.Context) {
	if err := s.cache.InvalidateVendorListing(ctx); err != nil {
		log.Warnf("vendor listing invalidation failed: %v", err)
	}
}

func validateVendorInput(in CreateVendorInput) error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidVendor)
	case in.Description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidVendor)
	case !in.FoodType.Valid():
		return fmt.Errorf("%w: unknown food type %q", ErrInvalidVendor, in.FoodType)
	case in.PickupWindow.Start == "" || in.PickupWindow.End == "":
		return fmt.Errorf("%w: pickup window is required", ErrInvalidVendor)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidVendor)
	case in.OriginalPrice < 0:
		return fmt.Errorf("%w: original price must not be negative", ErrInvalidVendor)
	case in.AvailableCount < 0:
		return fmt.Errorf("%w: available count must not be negative", ErrInvalidVendor)
	}
	return nil
}

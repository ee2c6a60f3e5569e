package service

import (
	"context"
	"errors"
	"testing"

	"github.com/okabakkie/marketplace/internal/core/domain"
	"github.com/okabakkie/marketplace/internal/port"
)

func validVendorInput() CreateVendorInput {
	return CreateVendorInput{
		Name:        "Windhoek Bakery",
		Description: "Fresh bread daily",
		FoodType:    domain.FoodTypeBakery,
		Address: domain.Address{
			Street: "123 Independence Avenue",
			City:   "Windhoek",
			Region: "Khomas",
		},
		PickupWindow:   domain.PickupWindow{Start: "16:00", End: "18:00"},
		Price:          25,
		OriginalPrice:  60,
		AvailableCount: 8,
	}
}

func TestCreateVendor_Success(t *testing.T) {
	vendors := newMockVendorRepo()
	svc := NewVendorService(vendors, newMockCacheRepo())

	vendor, err := svc.CreateVendor(context.Background(), validVendorInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if vendor.ID == "" {
		t.Error("expected a generated ID")
	}
	if !vendor.IsActive {
		t.Error("expected new vendor to be active")
	}
	if vendor.SurpriseBag.AvailableCount != 8 {
		t.Errorf("expected 8 bags, got %d", vendor.SurpriseBag.AvailableCount)
	}

	if _, err := vendors.GetByID(context.Background(), vendor.ID); err != nil {
		t.Errorf("vendor not persisted: %v", err)
	}
}

func TestCreateVendor_Validation(t *testing.T) {
	svc := NewVendorService(newMockVendorRepo(), newMockCacheRepo())

	cases := []struct {
		name   string
		mutate func(*CreateVendorInput)
	}{
		{"missing name", func(in *CreateVendorInput) { in.Name = "" }},
		{"missing description", func(in *CreateVendorInput) { in.Description = "" }},
		{"bad food type", func(in *CreateVendorInput) { in.FoodType = "sushi" }},
		{"missing pickup window", func(in *CreateVendorInput) { in.PickupWindow = domain.PickupWindow{} }},
		{"negative price", func(in *CreateVendorInput) { in.Price = -1 }},
		{"negative original price", func(in *CreateVendorInput) { in.OriginalPrice = -1 }},
		{"negative available count", func(in *CreateVendorInput) { in.AvailableCount = -1 }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := validVendorInput()
			c.mutate(&in)
			_, err := svc.CreateVendor(context.Background(), in)
			if !errors.Is(err, ErrInvalidVendor) {
				t.Errorf("expected ErrInvalidVendor, got: %v", err)
			}
		})
	}
}

func TestUpdateVendor_PartialPatch(t *testing.T) {
	vendors := newMockVendorRepo()
	svc := NewVendorService(vendors, newMockCacheRepo())

	created, err := svc.CreateVendor(context.Background(), validVendorInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newName := "Windhoek Artisan Bakery"
	newPrice := 30.0
	updated, err := svc.UpdateVendor(context.Background(), created.ID, VendorUpdate{
		Name:  &newName,
		Price: &newPrice,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Name != newName {
		t.Errorf("expected name %q, got %q", newName, updated.Name)
	}
	if updated.SurpriseBag.Price != newPrice {
		t.Errorf("expected price %.2f, got %.2f", newPrice, updated.SurpriseBag.Price)
	}

	// Untouched fields survive the patch.
	if updated.Description != created.Description {
		t.Errorf("description changed unexpectedly: %q", updated.Description)
	}
	if updated.SurpriseBag.AvailableCount != created.SurpriseBag.AvailableCount {
		t.Errorf("available count changed unexpectedly: %d", updated.SurpriseBag.AvailableCount)
	}
}

func TestUpdateVendor_SurvivesConcurrentReservation(t *testing.T) {
	vendors := newMockVendorRepo()
	svc := NewVendorService(vendors, newMockCacheRepo())

	created, err := svc.CreateVendor(context.Background(), validVendorInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A reservation decrements the count after the patch has read the
	// vendor but before it writes. The stale snapshot must not win.
	vendors.updateHook = func() {
		if err := vendors.AdjustAvailability(context.Background(), created.ID, -1); err != nil {
			t.Fatalf("adjust failed: %v", err)
		}
	}

	newName := "Windhoek Artisan Bakery"
	if _, err := svc.UpdateVendor(context.Background(), created.ID, VendorUpdate{Name: &newName}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stored, err := vendors.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Name != newName {
		t.Errorf("expected name %q, got %q", newName, stored.Name)
	}
	if stored.SurpriseBag.AvailableCount != 7 {
		t.Errorf("expected 7 bags after concurrent reservation, got %d", stored.SurpriseBag.AvailableCount)
	}
}

func TestUpdateVendor_AvailabilityOverride(t *testing.T) {
	vendors := newMockVendorRepo()
	svc := NewVendorService(vendors, newMockCacheRepo())

	created, err := svc.CreateVendor(context.Background(), validVendorInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	count := 20
	updated, err := svc.UpdateVendor(context.Background(), created.ID, VendorUpdate{AvailableCount: &count})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.SurpriseBag.AvailableCount != 20 {
		t.Errorf("expected 20 bags, got %d", updated.SurpriseBag.AvailableCount)
	}

	negative := -1
	_, err = svc.UpdateVendor(context.Background(), created.ID, VendorUpdate{AvailableCount: &negative})
	if !errors.Is(err, ErrInvalidVendor) {
		t.Errorf("expected ErrInvalidVendor for negative count, got: %v", err)
	}
}

func TestUpdateVendor_Deactivate(t *testing.T) {
	vendors := newMockVendorRepo()
	svc := NewVendorService(vendors, newMockCacheRepo())

	created, err := svc.CreateVendor(context.Background(), validVendorInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	inactive := false
	updated, err := svc.UpdateVendor(context.Background(), created.ID, VendorUpdate{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.IsActive {
		t.Error("expected vendor deactivated")
	}
}

func TestUpdateVendor_NotFound(t *testing.T) {
	svc := NewVendorService(newMockVendorRepo(), newMockCacheRepo())

	name := "x"
	_, err := svc.UpdateVendor(context.Background(), "missing", VendorUpdate{Name: &name})
	if !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestVendorMutationsInvalidateListing(t *testing.T) {
	cache := newMockCacheRepo()
	svc := NewVendorService(newMockVendorRepo(), cache)

	created, err := svc.CreateVendor(context.Background(), validVendorInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "Renamed"
	if _, err := svc.UpdateVendor(context.Background(), created.ID, VendorUpdate{Name: &name}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	cache.mu.Lock()
	invalidations := cache.invalidations
	cache.mu.Unlock()
	if invalidations != 2 {
		t.Errorf("expected 2 invalidations, got %d", invalidations)
	}
}

package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/okabakkie/marketplace/internal/adapter/storage"
	"github.com/okabakkie/marketplace/internal/config"
	"github.com/okabakkie/marketplace/internal/core/domain"
)

func seedVendors() []domain.Vendor {
	now := time.Now()
	vendors := []domain.Vendor{
		{
			Name:        "Windhoek Bakery",
			Description: "Fresh bread, pastries, and baked goods daily. Our surprise bags contain a mix of day-old bread, croissants, and sweet treats perfect for families.",
			FoodType:    domain.FoodTypeBakery,
			Address:     domain.Address{Street: "123 Independence Avenue", City: "Windhoek", Region: "Khomas"},
			Longitude:   17.0658,
			Latitude:    -22.5609,
			PickupWindow: domain.PickupWindow{
				Start: "16:00",
				End:   "18:00",
			},
			PickupInstructions: "Please ask for your OkaBakkie surprise bag at the main counter.",
			LogoURL:            "/images/windhoek-bakery-logo.jpg",
			BannerURL:          "/images/windhoek-bakery-banner.jpg",
			SurpriseBag:        domain.SurpriseBag{Price: 25, OriginalPrice: 60, AvailableCount: 8},
		},
		{
			Name:        "Café Schneider",
			Description: "European-style café serving coffee, sandwiches, and light meals. Surprise bags include fresh sandwiches, salads, and pastries from our daily menu.",
			FoodType:    domain.FoodTypeCafe,
			Address:     domain.Address{Street: "78 Sam Nujoma Drive", City: "Windhoek", Region: "Khomas"},
			Longitude:   17.0756,
			Latitude:    -22.5570,
			PickupWindow: domain.PickupWindow{
				Start: "15:30",
				End:   "17:30",
			},
			PickupInstructions: "Ask any staff member for your OkaBakkie order.",
			LogoURL:            "/images/cafe-schneider-logo.jpg",
			BannerURL:          "/images/cafe-schneider-banner.jpg",
			SurpriseBag:        domain.SurpriseBag{Price: 35, OriginalPrice: 80, AvailableCount: 5},
		},
		{
			Name:        "Stellenbosch Deli",
			Description: "Gourmet deli with fresh salads, wraps, and prepared meals. Our surprise bags feature a selection of today's fresh items at amazing prices.",
			FoodType:    domain.FoodTypeRestaurant,
			Address:     domain.Address{Street: "45 Mandume Ndemufayo Avenue", City: "Windhoek", Region: "Khomas"},
			Longitude:   17.0850,
			Latitude:    -22.5750,
			PickupWindow: domain.PickupWindow{
				Start: "17:00",
				End:   "19:00",
			},
			PickupInstructions: "Collect your surprise bag at the deli counter.",
			LogoURL:            "/images/stellenbosch-deli-logo.jpg",
			BannerURL:          "/images/stellenbosch-deli-banner.jpg",
			SurpriseBag:        domain.SurpriseBag{Price: 45, OriginalPrice: 120, AvailableCount: 3},
		},
		{
			Name:        "Klein Windhoek Grocers",
			Description: "Neighbourhood grocery with fresh produce and pantry staples. Surprise bags hold fruit, vegetables, and bakery items nearing their best-before date.",
			FoodType:    domain.FoodTypeGrocery,
			Address:     domain.Address{Street: "12 Nelson Mandela Avenue", City: "Windhoek", Region: "Khomas"},
			Longitude:   17.0920,
			Latitude:    -22.5655,
			PickupWindow: domain.PickupWindow{
				Start: "18:00",
				End:   "19:30",
			},
			PickupInstructions: "Ask at the till for your OkaBakkie bag.",
			LogoURL:            "/images/klein-windhoek-grocers-logo.jpg",
			BannerURL:          "/images/klein-windhoek-grocers-banner.jpg",
			SurpriseBag:        domain.SurpriseBag{Price: 30, OriginalPrice: 75, AvailableCount: 6},
		},
	}

	for i := range vendors {
		vendors[i].ID = uuid.NewString()
		vendors[i].IsActive = true
		vendors[i].CreatedAt = now
		vendors[i].UpdatedAt = now
	}
	return vendors
}

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()

	ctx := context.Background()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	if err := storage.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	repo := storage.NewMySQLVendorRepository(db)

	for _, vendor := range seedVendors() {
		// Skip vendors already seeded by a previous run.
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM vendors WHERE name = ?`, vendor.Name).Scan(&exists)
		if err == nil {
			log.Infof("vendor %q already present, skipping", vendor.Name)
			continue
		}

		if err := repo.Create(ctx, &vendor); err != nil {
			log.Fatalf("failed to seed vendor %q: %v", vendor.Name, err)
		}
		log.Infof("seeded vendor %q with %d bags", vendor.Name, vendor.SurpriseBag.AvailableCount)
	}

	log.Info("seeding complete")
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/okabakkie/marketplace/internal/adapter/storage"
	"github.com/okabakkie/marketplace/internal/core/domain"
	"github.com/okabakkie/marketplace/internal/core/service"
)

const (
	redisAddr     = "localhost:6379"
	mysqlDSN      = "root:root@tcp(localhost:3306)/okabakkie?parseTime=true"
	initialCount  = 20
	totalRequests = 50
	queueSize     = 100
)

func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	db, err := sql.Open("mysql", mysqlDSN)
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

	vendorRepo := storage.NewMySQLVendorRepository(db)
	reservationRepo := storage.NewMySQLReservationRepository(db)
	cache := storage.NewRedisAdapter(rdb)

	// Create a throwaway vendor for the run
	now := time.Now()
	vendor := &domain.Vendor{
		ID:           uuid.NewString(),
		Name:         "Stress Test Bakery " + now.Format("150405"),
		Description:  "stress test vendor",
		FoodType:     domain.FoodTypeBakery,
		Address:      domain.Address{Street: "1 Test Street", City: "Windhoek", Region: "Khomas"},
		PickupWindow: domain.PickupWindow{Start: "16:00", End: "18:00"},
		IsActive:     true,
		SurpriseBag: domain.SurpriseBag{
			Price:          25,
			OriginalPrice:  60,
			AvailableCount: initialCount,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := vendorRepo.Create(ctx, vendor); err != nil {
		log.Fatalf("failed to create vendor: %v", err)
	}
	defer func() {
		db.ExecContext(ctx, `DELETE FROM reservations WHERE vendor_id = ?`, vendor.ID)
		db.ExecContext(ctx, `DELETE FROM vendors WHERE id = ?`, vendor.ID)
	}()

	reservationService := service.NewReservationService(vendorRepo, reservationRepo, cache, queueSize)
	defer reservationService.Close()

	// Drain the event queue in background
	go func() {
		for range reservationService.EventQueue() {
		}
	}()

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			_, _, err := reservationService.CreateReservation(ctx, service.CreateReservationInput{
				RequestID:     uuid.NewString(),
				VendorID:      vendor.ID,
				CustomerName:  fmt.Sprintf("customer-%d", id),
				CustomerPhone: fmt.Sprintf("+2648112%05d", id),
				BagCount:      1,
			})
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Bags:     %d\n", initialCount)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if success == int32(initialCount) && fail == int32(totalRequests-initialCount) {
		fmt.Printf("PASS: Exactly %d reservations succeeded, %d rejected\n", initialCount, totalRequests-initialCount)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialCount, totalRequests-initialCount, success, fail)
	}

	// Verify final availability in MySQL
	var available int
	db.QueryRowContext(ctx, `SELECT available_count FROM vendors WHERE id = ?`, vendor.ID).Scan(&available)
	fmt.Printf("Final Available Count: %d\n", available)

	if available == 0 {
		fmt.Println("PASS: Availability depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected available count 0, got %d\n", available)
	}

	var reservationCount int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE vendor_id = ?`, vendor.ID).Scan(&reservationCount)
	fmt.Printf("Persisted Reservations: %d\n", reservationCount)

	if reservationCount == initialCount {
		fmt.Println("PASS: One reservation per reserved bag")
	} else {
		fmt.Printf("FAIL: Expected %d reservations, got %d\n", initialCount, reservationCount)
	}
}

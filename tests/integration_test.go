package tests

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/okabakkie/marketplace/internal/adapter/storage"
	"github.com/okabakkie/marketplace/internal/core/domain"
	"github.com/okabakkie/marketplace/internal/core/service"
)

type testEnv struct {
	redis        *redis.Client
	mysql        *sql.DB
	cache        *storage.RedisAdapter
	vendors      *storage.MySQLVendorRepository
	reservations *storage.MySQLReservationRepository
	cleanup      func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/okabakkie?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := storage.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("schema setup failed: %v", err)
	}

	return &testEnv{
		redis:        rdb,
		mysql:        db,
		cache:        storage.NewRedisAdapter(rdb),
		vendors:      storage.NewMySQLVendorRepository(db),
		reservations: storage.NewMySQLReservationRepository(db),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func (env *testEnv) createVendor(t *testing.T, available int) string {
	t.Helper()

	ctx := context.Background()
	now := time.Now()
	vendor := &domain.Vendor{
		ID:           uuid.NewString(),
		Name:         "Integration Bakery " + now.Format("150405.000"),
		Description:  "integration test vendor",
		FoodType:     domain.FoodTypeBakery,
		Address:      domain.Address{Street: "1 Test Street", City: "Windhoek", Region: "Khomas"},
		PickupWindow: domain.PickupWindow{Start: "16:00", End: "18:00"},
		IsActive:     true,
		SurpriseBag: domain.SurpriseBag{
			Price:          25,
			OriginalPrice:  60,
			AvailableCount: available,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := env.vendors.Create(ctx, vendor); err != nil {
		t.Fatalf("vendor setup failed: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		env.mysql.ExecContext(ctx, `DELETE FROM reservations WHERE vendor_id = ?`, vendor.ID)
		env.mysql.ExecContext(ctx, `DELETE FROM vendors WHERE id = ?`, vendor.ID)
	})

	return vendor.ID
}

func newService(env *testEnv) *service.ReservationService {
	svc := service.NewReservationService(env.vendors, env.reservations, env.cache, 100)

	go func() {
		for range svc.EventQueue() {
		}
	}()

	return svc
}

func TestIntegration_ConcurrentReservations(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	initialCount := 10
	totalRequests := 25
	vendorID := env.createVendor(t, initialCount)

	svc := newService(env)
	defer svc.Close()

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.CreateReservation(ctx, service.CreateReservationInput{
				RequestID:     uuid.NewString(),
				VendorID:      vendorID,
				CustomerName:  "Load Tester",
				CustomerPhone: "+264811234567",
				BagCount:      1,
			})
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != int32(initialCount) {
		t.Errorf("expected %d successful reservations, got %d", initialCount, successCount.Load())
	}

	// Every reserved bag corresponds to exactly one persisted reservation.
	var reservationCount int
	env.mysql.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations WHERE vendor_id = ? AND status = 'pending'`,
		vendorID).Scan(&reservationCount)
	if reservationCount != initialCount {
		t.Errorf("expected %d reservations in MySQL, got %d", initialCount, reservationCount)
	}

	var available int
	env.mysql.QueryRowContext(ctx, `SELECT available_count FROM vendors WHERE id = ?`, vendorID).Scan(&available)
	if available != 0 {
		t.Errorf("expected available count 0, got %d", available)
	}
}

func TestIntegration_CancelRestoresAvailability(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	vendorID := env.createVendor(t, 5)

	svc := newService(env)
	defer svc.Close()

	resv, _, err := svc.CreateReservation(ctx, service.CreateReservationInput{
		VendorID:      vendorID,
		CustomerName:  "Maria",
		CustomerPhone: "+264811234567",
		BagCount:      3,
	})
	if err != nil {
		t.Fatalf("reservation failed: %v", err)
	}

	var available int
	env.mysql.QueryRowContext(ctx, `SELECT available_count FROM vendors WHERE id = ?`, vendorID).Scan(&available)
	if available != 2 {
		t.Fatalf("expected available count 2, got %d", available)
	}

	if _, err := svc.CancelReservation(ctx, resv.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	env.mysql.QueryRowContext(ctx, `SELECT available_count FROM vendors WHERE id = ?`, vendorID).Scan(&available)
	if available != 5 {
		t.Errorf("expected available count restored to 5, got %d", available)
	}

	var status string
	env.mysql.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ?`, resv.ID).Scan(&status)
	if status != "cancelled" {
		t.Errorf("expected status cancelled, got %s", status)
	}
}

func TestIntegration_ConcurrentCancelRestoresOnce(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	vendorID := env.createVendor(t, 5)

	svc := newService(env)
	defer svc.Close()

	resv, _, err := svc.CreateReservation(ctx, service.CreateReservationInput{
		VendorID:      vendorID,
		CustomerName:  "Maria",
		CustomerPhone: "+264811234567",
		BagCount:      2,
	})
	if err != nil {
		t.Fatalf("reservation failed: %v", err)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CancelReservation(ctx, resv.ID); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 successful cancel, got %d", successCount.Load())
	}

	var available int
	env.mysql.QueryRowContext(ctx, `SELECT available_count FROM vendors WHERE id = ?`, vendorID).Scan(&available)
	if available != 5 {
		t.Errorf("expected available count 5, got %d", available)
	}
}

func TestIntegration_IdempotencyPreventsDoubleReservation(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	vendorID := env.createVendor(t, 5)

	svc := newService(env)
	defer svc.Close()

	requestID := uuid.NewString()
	env.redis.Del(ctx, "reservation:request:"+requestID)

	in := service.CreateReservationInput{
		RequestID:     requestID,
		VendorID:      vendorID,
		CustomerName:  "Maria",
		CustomerPhone: "+264811234567",
		BagCount:      1,
	}

	if _, _, err := svc.CreateReservation(ctx, in); err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}

	_, _, err := svc.CreateReservation(ctx, in)
	if err != service.ErrDuplicateRequest {
		t.Errorf("expected ErrDuplicateRequest, got: %v", err)
	}

	var available int
	env.mysql.QueryRowContext(ctx, `SELECT available_count FROM vendors WHERE id = ?`, vendorID).Scan(&available)
	if available != 4 {
		t.Errorf("expected available count 4, got %d", available)
	}
}

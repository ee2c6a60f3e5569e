package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okabakkie/marketplace/internal/core/domain"
	"github.com/okabakkie/marketplace/internal/port"
)

const vendorColumns = `id, name, description, food_type, street, city, region,
	longitude, latitude, pickup_start, pickup_end, pickup_instructions,
	logo_url, banner_url, is_active, price, original_price, available_count,
	created_at, updated_at`

type MySQLVendorRepository struct {
	db *sql.DB
}

func NewMySQLVendorRepository(db *sql.DB) *MySQLVendorRepository {
	return &MySQLVendorRepository{db: db}
}

func (r *MySQLVendorRepository) Create(ctx context.Context, v *domain.Vendor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vendors (`+vendorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Description, v.FoodType,
		v.Address.Street, v.Address.City, v.Address.Region,
		v.Longitude, v.Latitude,
		v.PickupWindow.Start, v.PickupWindow.End, v.PickupInstructions,
		v.LogoURL, v.BannerURL, v.IsActive,
		v.SurpriseBag.Price, v.SurpriseBag.OriginalPrice, v.SurpriseBag.AvailableCount,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

// Update writes every vendor field except available_count. The count is
// mutated concurrently by reservations; writing it here would clobber a
// decrement committed between the caller's read and this statement.
func (r *MySQLVendorRepository) Update(ctx context.Context, v *domain.Vendor) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE vendors
		SET name = ?, description = ?, food_type = ?, street = ?, city = ?, region = ?,
			longitude = ?, latitude = ?, pickup_start = ?, pickup_end = ?,
			pickup_instructions = ?, logo_url = ?, banner_url = ?, is_active = ?,
			price = ?, original_price = ?, updated_at = NOW(3)
		WHERE id = ?`,
		v.Name, v.Description, v.FoodType,
		v.Address.Street, v.Address.City, v.Address.Region,
		v.Longitude, v.Latitude,
		v.PickupWindow.Start, v.PickupWindow.End,
		v.PickupInstructions, v.LogoURL, v.BannerURL, v.IsActive,
		v.SurpriseBag.Price, v.SurpriseBag.OriginalPrice,
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("update vendor: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := r.GetByID(ctx, v.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *MySQLVendorRepository) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = ?`, id)
	v, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query vendor: %w", err)
	}
	return v, nil
}

func (r *MySQLVendorRepository) ListActive(ctx context.Context) ([]domain.Vendor, error) {
	return r.list(ctx, `SELECT `+vendorColumns+` FROM vendors
		WHERE is_active = 1 AND available_count > 0
		ORDER BY name`)
}

func (r *MySQLVendorRepository) ListAll(ctx context.Context) ([]domain.Vendor, error) {
	return r.list(ctx, `SELECT `+vendorColumns+` FROM vendors ORDER BY created_at DESC`)
}

func (r *MySQLVendorRepository) list(ctx context.Context, query string) ([]domain.Vendor, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query vendors: %w", err)
	}
	defer rows.Close()

	var vendors []domain.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendors: %w", err)
	}
	return vendors, nil
}

// AdjustAvailability applies available_count += delta in a single guarded
// UPDATE so the count can never go below zero, regardless of concurrent
// callers on the same vendor.
func (r *MySQLVendorRepository) AdjustAvailability(ctx context.Context, id string, delta int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE vendors
		SET available_count = available_count + ?, updated_at = NOW(3)
		WHERE id = ? AND available_count + ? >= 0`,
		delta, id, delta,
	)
	if err != nil {
		return fmt.Errorf("adjust availability: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM vendors WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return port.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check vendor: %w", err)
		}
		return port.ErrInsufficientInventory
	}
	return nil
}

// OverrideAvailability is the administrative absolute write.
func (r *MySQLVendorRepository) OverrideAvailability(ctx context.Context, id string, count int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE vendors SET available_count = ?, updated_at = NOW(3) WHERE id = ?`,
		count, id,
	)
	if err != nil {
		return fmt.Errorf("override availability: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM vendors WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return port.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check vendor: %w", err)
		}
	}
	return nil
}

// DecrementForReservation is the create-path primitive: the availability
// check and the decrement are one statement, and the vendor row used for
// the price snapshot is read inside the same transaction.
func (r *MySQLVendorRepository) DecrementForReservation(ctx context.Context, id string, count int) (*domain.Vendor, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE vendors
		SET available_count = available_count - ?, updated_at = NOW(3)
		WHERE id = ? AND is_active = 1 AND available_count >= ?`,
		count, id, count,
	)
	if err != nil {
		return nil, fmt.Errorf("decrement availability: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var isActive bool
		err := tx.QueryRowContext(ctx, `SELECT is_active FROM vendors WHERE id = ?`, id).Scan(&isActive)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("check vendor: %w", err)
		}
		if !isActive {
			return nil, port.ErrVendorInactive
		}
		return nil, port.ErrInsufficientInventory
	}

	v, err := scanVendor(tx.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("read vendor after decrement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit decrement: %w", err)
	}
	return v, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (*domain.Vendor, error) {
	var v domain.Vendor
	err := row.Scan(
		&v.ID, &v.Name, &v.Description, &v.FoodType,
		&v.Address.Street, &v.Address.City, &v.Address.Region,
		&v.Longitude, &v.Latitude,
		&v.PickupWindow.Start, &v.PickupWindow.End, &v.PickupInstructions,
		&v.LogoURL, &v.BannerURL, &v.IsActive,
		&v.SurpriseBag.Price, &v.SurpriseBag.OriginalPrice, &v.SurpriseBag.AvailableCount,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

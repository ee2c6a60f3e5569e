package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/okabakkie/marketplace/internal/core/domain"
	"github.com/okabakkie/marketplace/internal/port"
)

const reservationColumns = `id, reservation_number, vendor_id, customer_name,
	customer_phone, customer_email, bag_count, total_price, status,
	payment_method, notes, pickup_date, created_at, updated_at`

// MySQL duplicate-entry error for the reservation_number unique key.
const mysqlErrDuplicateEntry = 1062

// Attempts at regenerating a colliding reservation number before
// surfacing ErrConflict.
const reservationNumberAttempts = 3

type MySQLReservationRepository struct {
	db *sql.DB
}

func NewMySQLReservationRepository(db *sql.DB) *MySQLReservationRepository {
	return &MySQLReservationRepository{db: db}
}

func (r *MySQLReservationRepository) Create(ctx context.Context, resv *domain.Reservation) error {
	for attempt := 0; attempt < reservationNumberAttempts; attempt++ {
		resv.ReservationNumber = domain.NewReservationNumber()

		_, err := r.db.ExecContext(ctx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			resv.ID, resv.ReservationNumber, resv.VendorID, resv.CustomerName,
			resv.CustomerPhone, resv.CustomerEmail, resv.BagCount, resv.TotalPrice,
			resv.Status, resv.PaymentMethod, resv.Notes, resv.PickupDate,
			resv.CreatedAt, resv.UpdatedAt,
		)
		if err == nil {
			return nil
		}

		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			continue
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return port.ErrConflict
}

func (r *MySQLReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	resv, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	return resv, nil
}

func (r *MySQLReservationRepository) ListByPhone(ctx context.Context, phone string) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE customer_phone = ? ORDER BY created_at DESC`, phone)
}

func (r *MySQLReservationRepository) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY created_at DESC`)
}

func (r *MySQLReservationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		resv, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *resv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return reservations, nil
}

// UpdateStatus locks the row, validates the transition against the state
// machine and applies the change, all in one transaction. Two concurrent
// cancellations of the same reservation therefore resolve to exactly one
// success and one ErrInvalidTransition.
func (r *MySQLReservationRepository) UpdateStatus(ctx context.Context, id string, next domain.Status) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current domain.Status
	err = tx.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ? FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock reservation: %w", err)
	}

	if !current.CanTransitionTo(next) {
		return nil, port.ErrInvalidTransition
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE reservations SET status = ?, updated_at = NOW(3) WHERE id = ?`,
		next, id,
	); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	resv, err := scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("read reservation after update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}
	return resv, nil
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var resv domain.Reservation
	err := row.Scan(
		&resv.ID, &resv.ReservationNumber, &resv.VendorID, &resv.CustomerName,
		&resv.CustomerPhone, &resv.CustomerEmail, &resv.BagCount, &resv.TotalPrice,
		&resv.Status, &resv.PaymentMethod, &resv.Notes, &resv.PickupDate,
		&resv.CreatedAt, &resv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &resv, nil
}

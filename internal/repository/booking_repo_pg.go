package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// CreatePending books the slot and inserts the booking atomically.
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Booking, error)
	// UpdateStatus moves the booking from one status to another. It returns
	// ErrStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error)
	// CancelAndRelease marks the booking cancelled and frees its slot, under
	// the same condition as UpdateStatus.
	CancelAndRelease(ctx context.Context, id string, from domain.BookingStatus) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, expert_id, user_name, email, phone, date, time_slot, notes, status, created_at, updated_at`

func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `UPDATE expert_slots SET is_booked = TRUE
		WHERE expert_id=$1 AND date=$2 AND time=$3 AND NOT is_booked`,
		booking.ExpertID, booking.Date, booking.TimeSlot)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM expert_slots WHERE expert_id=$1 AND date=$2 AND time=$3)`,
			booking.ExpertID, booking.Date, booking.TimeSlot).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrSlotNotFound
		}
		return ErrSlotTaken
	}

	booking.Status = domain.BookingStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, expert_id, user_name, email, phone, date, time_slot, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		booking.ID, booking.ExpertID, booking.UserName, booking.Email, booking.Phone, booking.Date, booking.TimeSlot, booking.Notes, booking.Status).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE lower(email)=lower($1) ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

const updateStatusQuery = `UPDATE bookings SET status=$1, updated_at=now()
	WHERE id=$2 AND status=$3 RETURNING ` + bookingColumns

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, updateStatusQuery, to, id, from)
	return scanTransition(row)
}

func (r *PGBookingRepository) CancelAndRelease(ctx context.Context, id string, from domain.BookingStatus) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, updateStatusQuery, domain.BookingStatusCancelled, id, from)
	b, err := scanTransition(row)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE expert_slots SET is_booked = FALSE WHERE expert_id=$1 AND date=$2 AND time=$3`,
		b.ExpertID, b.Date, b.TimeSlot); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.ExpertID, &b.UserName, &b.Email, &b.Phone, &b.Date, &b.TimeSlot, &b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// scanTransition reads the row returned by a conditional status update. No row
// means the booking is missing or no longer in the expected status.
func scanTransition(row pgx.Row) (*domain.Booking, error) {
	b, err := scanBooking(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrStatusChanged
	}
	return b, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roomly/bookings/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByRoom(ctx context.Context, roomID int64) ([]domain.Booking, error)
	ListByParticipant(ctx context.Context, email string) ([]domain.Booking, error)
	ListOverlapping(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error)
	Delete(ctx context.Context, id int64) (bool, error)
	AddParticipant(ctx context.Context, id int64, email string) (bool, error)
	ExistsForRoomWithParticipant(ctx context.Context, roomID int64, email string) (bool, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, room_id, user_id, start_time, end_time, description, participants, created_at, updated_at`

// exclusionViolation is SQLSTATE 23P01, raised by the bookings_no_overlap
// constraint when two writers race past the service-level conflict check.
func exclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.RoomID, &b.UserID, &b.StartTime, &b.EndTime,
		&b.Description, &b.Participants, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	const q = `
		INSERT INTO bookings (room_id, user_id, start_time, end_time, description, participants)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanBooking(r.pool.QueryRow(ctx, q,
		b.RoomID, b.UserID, b.StartTime, b.EndTime, b.Description, b.Participants,
	))
	if exclusionViolation(err) {
		return nil, domain.Conflictf("time conflict detected")
	}
	return created, err
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) ListByRoom(ctx context.Context, roomID int64) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE room_id = $1 ORDER BY start_time`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) ListByParticipant(ctx context.Context, email string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE lower($1) = ANY(participants) ORDER BY start_time`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListOverlapping returns bookings on the room whose half-open interval
// intersects [start, end): existing.start < end AND existing.end > start.
// excludeID, when non-zero, drops that booking from the result so an update
// does not conflict with its own prior state.
func (r *bookingRepository) ListOverlapping(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Booking, error) {
	const q = `
		SELECT ` + bookingCols + `
		FROM bookings
		WHERE room_id = $1 AND start_time < $3 AND end_time > $2 AND id != $4
		ORDER BY start_time`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, roomID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET
			start_time  = COALESCE($2, start_time),
			end_time    = COALESCE($3, end_time),
			description = COALESCE($4, description),
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, patch.StartTime, patch.EndTime, patch.Description))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if exclusionViolation(err) {
		return nil, domain.Conflictf("time conflict detected")
	}
	return b, err
}

func (r *bookingRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM bookings WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// AddParticipant appends the email to the booking's participant set. Returns
// false when nothing changed (booking missing or email already present).
func (r *bookingRepository) AddParticipant(ctx context.Context, id int64, email string) (bool, error) {
	const q = `
		UPDATE bookings
		SET participants = array_append(participants, lower($2)), updated_at = now()
		WHERE id = $1 AND NOT (lower($2) = ANY(participants))`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, email)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ExistsForRoomWithParticipant reports whether the email appears in the
// participants of at least one booking on the room. Drives the add-member
// authorization predicate.
func (r *bookingRepository) ExistsForRoomWithParticipant(ctx context.Context, roomID int64, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM bookings WHERE room_id = $1 AND lower($2) = ANY(participants))`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, roomID, email).Scan(&exists)
	return exists, err
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

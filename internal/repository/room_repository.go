package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roomly/bookings/internal/domain"
)

type RoomRepository interface {
	Create(ctx context.Context, req *domain.CreateRoomRequest, ownerID int64) (*domain.Room, error)
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	List(ctx context.Context, limit, offset int) ([]domain.Room, error)
	Update(ctx context.Context, id int64, patch domain.RoomPatch) (*domain.Room, error)
	Delete(ctx context.Context, id int64) (bool, error)
	AddMember(ctx context.Context, roomID int64, member domain.RoomMember) (bool, error)
}

type roomRepository struct {
	pool *pgxpool.Pool
}

func NewRoomRepository(pool *pgxpool.Pool) RoomRepository {
	return &roomRepository{pool: pool}
}

const roomCols = `id, name, description, image_url, created_by, members, created_at, updated_at`

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var (
		rm      domain.Room
		members []byte
	)
	err := row.Scan(
		&rm.ID, &rm.Name, &rm.Description, &rm.ImageURL, &rm.CreatedBy, &members, &rm.CreatedAt, &rm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &rm.Members); err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *roomRepository) Create(ctx context.Context, req *domain.CreateRoomRequest, ownerID int64) (*domain.Room, error) {
	const q = `
		INSERT INTO rooms (name, description, image_url, created_by, members)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + roomCols

	members, err := json.Marshal([]domain.RoomMember{{UserID: ownerID, Role: domain.RoleAdmin}})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanRoom(r.pool.QueryRow(ctx, q, req.Name, req.Description, req.ImageURL, ownerID, members))
}

func (r *roomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	room, err := scanRoom(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return room, err
}

func (r *roomRepository) List(ctx context.Context, limit, offset int) ([]domain.Room, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + roomCols + ` FROM rooms ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

func (r *roomRepository) Update(ctx context.Context, id int64, patch domain.RoomPatch) (*domain.Room, error) {
	const q = `
		UPDATE rooms
		SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			image_url   = COALESCE($4, image_url),
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + roomCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	room, err := scanRoom(r.pool.QueryRow(ctx, q, id, patch.Name, patch.Description, patch.ImageURL))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return room, err
}

func (r *roomRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM rooms WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// AddMember appends the member to the room's member set. The NOT EXISTS guard
// keeps membership keyed by user id, so repeated adds are no-ops. Returns
// false when nothing changed (room missing or member already present).
func (r *roomRepository) AddMember(ctx context.Context, roomID int64, member domain.RoomMember) (bool, error) {
	const q = `
		UPDATE rooms
		SET members = members || $2::jsonb, updated_at = now()
		WHERE id = $1 AND NOT EXISTS (
			SELECT 1 FROM jsonb_array_elements(members) AS m
			WHERE (m->>'user_id')::bigint = $3
		)`

	entry, err := json.Marshal([]domain.RoomMember{member})
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, roomID, entry, member.UserID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

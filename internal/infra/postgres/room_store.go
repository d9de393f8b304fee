package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-room-service/internal/domain"
)

// RoomStore persists room documents as JSONB rows.
type RoomStore struct {
	pool *pgxpool.Pool
}

func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

func (s *RoomStore) LoadRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM rooms WHERE id=$1`, roomID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("unmarshal room: %w", err)
	}
	return &room, nil
}

func (s *RoomStore) SaveRoom(ctx context.Context, room *domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO rooms (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
		room.ID, data)
	if err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	return nil
}

func (s *RoomStore) CreateRoom(ctx context.Context, room *domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO rooms (id, data) VALUES ($1, $2::jsonb) ON CONFLICT (id) DO NOTHING`,
		room.ID, data)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomExists
	}
	return nil
}

package room

import (
	"context"

	"quiz-room-service/internal/domain"
)

// Store is the durability boundary for room documents. A successful SaveRoom
// must be visible to the next LoadRoom for the same room.
type Store interface {
	// LoadRoom returns domain.ErrRoomNotFound when the ID does not resolve.
	LoadRoom(ctx context.Context, roomID string) (*domain.Room, error)
	// SaveRoom upserts the full room document.
	SaveRoom(ctx context.Context, room *domain.Room) error
	// CreateRoom inserts a new room and returns domain.ErrRoomExists on a
	// room ID collision.
	CreateRoom(ctx context.Context, room *domain.Room) error
}

package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/room"
)

// RoomCache is a write-through Redis cache in front of another room.Store.
// Loads are coalesced with singleflight so a cold room hits the backing store
// once; saves go to the backing store first and refresh the cached document
// best-effort. Documents are stored as: SET room:{roomID}:doc {json}.
type RoomCache struct {
	client *redis.Client
	inner  room.Store
	ttl    time.Duration
	sf     singleflight.Group
}

func NewRoomCache(client *redis.Client, inner room.Store, ttl time.Duration) *RoomCache {
	return &RoomCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
	}
}

func (c *RoomCache) LoadRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if rm, ok := c.cached(ctx, roomID); ok {
		return rm, nil
	}

	result, err, _ := c.sf.Do(roomID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if rm, ok := c.cached(ctx, roomID); ok {
			return rm, nil
		}
		rm, err := c.inner.LoadRoom(ctx, roomID)
		if err != nil {
			return nil, err
		}
		c.fill(ctx, rm)
		return rm, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Room), nil
}

func (c *RoomCache) SaveRoom(ctx context.Context, rm *domain.Room) error {
	if err := c.inner.SaveRoom(ctx, rm); err != nil {
		return err
	}
	c.fill(ctx, rm)
	return nil
}

func (c *RoomCache) CreateRoom(ctx context.Context, rm *domain.Room) error {
	if err := c.inner.CreateRoom(ctx, rm); err != nil {
		return err
	}
	c.fill(ctx, rm)
	return nil
}

func (c *RoomCache) cached(ctx context.Context, roomID string) (*domain.Room, bool) {
	raw, err := c.client.Get(ctx, c.key(roomID)).Bytes()
	if err != nil {
		return nil, false
	}
	var rm domain.Room
	if err := json.Unmarshal(raw, &rm); err != nil {
		return nil, false
	}
	return &rm, true
}

// fill refreshes the cached document. Cache errors are swallowed; the backing
// store already holds the truth.
func (c *RoomCache) fill(ctx context.Context, rm *domain.Room) {
	data, err := json.Marshal(rm)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(rm.ID), data, c.ttlWithJitter()).Err()
}

func (c *RoomCache) key(roomID string) string {
	return "room:" + roomID + ":doc"
}

// ttlWithJitter spreads expirations by up to 10% of the TTL. The top-level
// rand functions are locked; fill is called concurrently from every room actor.
func (c *RoomCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}

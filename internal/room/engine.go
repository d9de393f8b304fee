package room

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-room-service/internal/domain"
)

const createRetries = 3

// Engine routes every inbound event to the actor owning the target room,
// spawning actors on demand from the store. Rooms never share an actor, so
// mutations on different rooms proceed fully in parallel.
type Engine struct {
	store       Store
	log         *zap.Logger
	now         func() time.Time
	saveRetries int

	mu     sync.RWMutex
	actors map[string]*Actor
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSaveRetries bounds how often a room save is retried before the
// triggering event is dropped.
func WithSaveRetries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.saveRetries = n
		}
	}
}

func NewEngine(store Store, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		log:         log,
		now:         time.Now,
		saveRetries: 3,
		actors:      make(map[string]*Actor),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// actor returns the live actor for roomID, loading the room from the store
// and spawning one if needed. Returns domain.ErrRoomNotFound when the ID does
// not resolve.
func (e *Engine) actor(ctx context.Context, roomID string) (*Actor, error) {
	e.mu.RLock()
	act, ok := e.actors[roomID]
	e.mu.RUnlock()
	if ok {
		return act, nil
	}

	state, err := e.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrRoomClosed
	}
	if act, ok := e.actors[roomID]; ok {
		return act, nil
	}
	act = newActor(state, e.store, e.log, e.now, e.saveRetries)
	e.actors[roomID] = act
	return act, nil
}

// CreateRoom makes a fresh waiting room with a random uppercase hex code and
// the creator as host.
func (e *Engine) CreateRoom(ctx context.Context, name, hostID string) (*domain.Room, error) {
	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		code, err := newRoomCode()
		if err != nil {
			return nil, err
		}
		rm := &domain.Room{
			ID:        code,
			Name:      name,
			HostID:    hostID,
			Status:    domain.StatusWaiting,
			CreatedAt: e.now(),
		}
		if err := e.store.CreateRoom(ctx, rm); err != nil {
			if errors.Is(err, domain.ErrRoomExists) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return rm, nil
	}
	return nil, lastErr
}

// ReplaceQuestions validates, normalizes, and installs a new question set.
// Only the host may upload, and only while the room is waiting.
func (e *Engine) ReplaceQuestions(ctx context.Context, roomID, hostID string, questions []domain.Question) error {
	normalized := make([]domain.Question, len(questions))
	for i := range questions {
		q := questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if err := domain.NormalizeQuestion(&q); err != nil {
			return err
		}
		normalized[i] = q
	}
	act, err := e.actor(ctx, roomID)
	if err != nil {
		return err
	}
	return act.replaceQuestions(ctx, hostID, normalized)
}

// Join upserts a participant in the room and binds its connection.
func (e *Engine) Join(ctx context.Context, roomID, userID, displayName, connID string) (domain.SyncState, error) {
	act, err := e.actor(ctx, roomID)
	if err != nil {
		return domain.SyncState{}, err
	}
	return act.join(ctx, userID, displayName, connID)
}

// Disconnect clears the participant's connection binding if connID still owns
// it. In-flight mutations are unaffected.
func (e *Engine) Disconnect(ctx context.Context, roomID, userID, connID string) {
	e.mu.RLock()
	act, ok := e.actors[roomID]
	e.mu.RUnlock()
	if ok {
		act.disconnect(userID, connID)
	}
}

// Start begins the contest. Host-only; needs at least one question.
func (e *Engine) Start(ctx context.Context, roomID, userID string) error {
	act, err := e.actor(ctx, roomID)
	if err != nil {
		return err
	}
	return act.start(ctx, userID)
}

// Submit applies one answer submission. accepted is false when the event was
// absorbed as expected concurrent noise (not live, stale, duplicate).
func (e *Engine) Submit(ctx context.Context, roomID, userID, questionID string, selected *int) (domain.ProgressState, bool, error) {
	act, err := e.actor(ctx, roomID)
	if err != nil {
		return domain.ProgressState{}, false, err
	}
	return act.submit(ctx, userID, questionID, selected)
}

// Leaderboard recomputes the ranked board on explicit request.
func (e *Engine) Leaderboard(ctx context.Context, roomID string) (domain.Leaderboard, error) {
	act, err := e.actor(ctx, roomID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return act.leaderboard()
}

// Snapshot returns a consistent deep copy of the room's current state.
func (e *Engine) Snapshot(ctx context.Context, roomID string) (*domain.Room, error) {
	act, err := e.actor(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return act.snapshot()
}

// Subscribe returns the room's event channel for one connection. The caller
// must invoke cancel to avoid leaks.
func (e *Engine) Subscribe(ctx context.Context, roomID string) (<-chan Event, func(), error) {
	act, err := e.actor(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	return act.subscribe()
}

// Close stops every room actor. Rooms stay durable in the store.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for id, act := range e.actors {
		act.stop()
		delete(e.actors, id)
	}
}

func newRoomCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

package memory

import (
	"context"
	"errors"
	"testing"

	"quiz-room-service/internal/domain"
)

func TestRoomStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRoomStore()

	if _, err := store.LoadRoom(ctx, "R1"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	rm := &domain.Room{ID: "R1", Name: "Friday Quiz", HostID: "h1", Status: domain.StatusWaiting}
	if err := store.CreateRoom(ctx, rm); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateRoom(ctx, rm); !errors.Is(err, domain.ErrRoomExists) {
		t.Fatalf("expected ErrRoomExists, got %v", err)
	}

	loaded, err := store.LoadRoom(ctx, "R1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Name != "Friday Quiz" {
		t.Fatalf("unexpected room: %+v", loaded)
	}

	// Returned documents are copies; mutating one must not leak into the store.
	loaded.Name = "mutated"
	again, _ := store.LoadRoom(ctx, "R1")
	if again.Name != "Friday Quiz" {
		t.Fatalf("store shares state with callers")
	}
}

func TestRoomStoreSaveIsVisibleToNextLoad(t *testing.T) {
	ctx := context.Background()
	store := NewRoomStore()

	rm := &domain.Room{ID: "R1", Status: domain.StatusWaiting}
	if err := store.SaveRoom(ctx, rm); err != nil {
		t.Fatalf("save: %v", err)
	}
	rm.Status = domain.StatusLive
	if err := store.SaveRoom(ctx, rm); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.LoadRoom(ctx, "R1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Status != domain.StatusLive {
		t.Fatalf("expected read-your-writes, got %s", loaded.Status)
	}
}

package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"quiz-room-service/internal/domain"
)

var (
	// ErrSaveFailed is returned when a mutation could not be persisted within
	// the retry bound. The triggering event is dropped; no partial state is
	// installed or broadcast.
	ErrSaveFailed = errors.New("room mutation not persisted")
	// ErrRoomClosed is returned when the room actor has been stopped.
	ErrRoomClosed = errors.New("room actor stopped")
)

// Actor owns all state transitions for exactly one room. Every mutating event
// is funneled through a single goroutine and processed in arrival order, so no
// two read-modify-write cycles on the same room can interleave. Mutations are
// staged on a deep copy, persisted, and only then installed as the
// authoritative state; broadcasts read the post-mutation snapshot.
type Actor struct {
	id          string
	store       Store
	log         *zap.Logger
	now         func() time.Time
	saveRetries int

	cmds chan func()
	quit chan struct{}

	// owned by the run goroutine
	state *domain.Room
	subs  map[chan Event]struct{}
}

func newActor(state *domain.Room, store Store, log *zap.Logger, now func() time.Time, saveRetries int) *Actor {
	a := &Actor{
		id:          state.ID,
		store:       store,
		log:         log.With(zap.String("roomId", state.ID)),
		now:         now,
		saveRetries: saveRetries,
		cmds:        make(chan func(), 32),
		quit:        make(chan struct{}),
		state:       state,
		subs:        make(map[chan Event]struct{}),
	}
	go a.run()
	return a
}

func (a *Actor) run() {
	for {
		select {
		case fn := <-a.cmds:
			fn()
		case <-a.quit:
			// Drain queued commands so no caller is left waiting, then
			// release subscribers.
			for {
				select {
				case fn := <-a.cmds:
					fn()
				default:
					for ch := range a.subs {
						close(ch)
					}
					return
				}
			}
		}
	}
}

func (a *Actor) stop() {
	close(a.quit)
}

// do runs fn on the actor goroutine and waits for completion. It reports
// false when the actor has been stopped and fn never ran.
func (a *Actor) do(fn func()) bool {
	done := make(chan struct{})
	select {
	case a.cmds <- func() { fn(); close(done) }:
		<-done
		return true
	case <-a.quit:
		return false
	}
}

// commit persists the staged room with bounded retries and installs it as the
// authoritative state only after a successful save.
func (a *Actor) commit(ctx context.Context, staged *domain.Room) bool {
	var err error
	for attempt := 0; attempt < a.saveRetries; attempt++ {
		if err = a.store.SaveRoom(ctx, staged); err == nil {
			a.state = staged
			return true
		}
	}
	a.log.Error("dropping room mutation, save exhausted retries",
		zap.Int("attempts", a.saveRetries), zap.Error(err))
	return false
}

func (a *Actor) publish(ev Event) {
	for ch := range a.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop its oldest pending event rather than
			// blocking the room loop.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (a *Actor) publishRoster() {
	a.publish(Event{Type: EventRoster, Payload: buildRoster(a.state)})
}

func (a *Actor) publishLeaderboard(now time.Time) {
	a.publish(Event{Type: EventLeaderboard, Payload: buildLeaderboard(a.state, now)})
}

// subscribe registers a room-scoped event channel. The first event is a
// leaderboard snapshot so late observers start from a current board.
func (a *Actor) subscribe() (<-chan Event, func(), error) {
	ch := make(chan Event, 16)
	ok := a.do(func() {
		a.subs[ch] = struct{}{}
		ch <- Event{Type: EventLeaderboard, Payload: buildLeaderboard(a.state, a.now())}
	})
	if !ok {
		return nil, nil, ErrRoomClosed
	}
	cancel := func() {
		a.do(func() {
			if _, ok := a.subs[ch]; ok {
				delete(a.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel, nil
}

// join upserts a participant and binds its live connection. A fresh join into
// a live contest starts at question 0 with a full time budget; a rejoin keeps
// score and progress and only rebinds the connection.
func (a *Actor) join(ctx context.Context, userID, displayName, connID string) (domain.SyncState, error) {
	var (
		sync domain.SyncState
		err  error
	)
	ok := a.do(func() {
		now := a.now()
		staged := a.state.Clone()
		p := staged.Participant(userID)
		if p == nil {
			p = &domain.Participant{
				UserID:      userID,
				DisplayName: displayName,
				Cursor:      -1,
			}
			if staged.Status == domain.StatusLive {
				p.Cursor = 0
				p.CursorStartedAt = cloneTime(&now)
			}
			staged.Participants = append(staged.Participants, p)
		} else {
			if p.DisplayName == "" && displayName != "" {
				p.DisplayName = displayName
			}
			if staged.Status == domain.StatusLive && p.Cursor < 0 {
				p.Cursor = 0
				p.CursorStartedAt = cloneTime(&now)
				p.Completed = false
			}
		}
		// A new join for the same user supersedes the previous binding.
		p.ConnID = connID

		if !a.commit(ctx, staged) {
			err = ErrSaveFailed
			return
		}
		sync = domain.SyncState{
			Status:           a.state.Status,
			ContestStartedAt: cloneTime(a.state.ContestStartedAt),
			Participant:      a.state.Participant(userID).Progress(),
		}
		a.publishRoster()
		a.publishLeaderboard(now)
	})
	if !ok {
		return domain.SyncState{}, ErrRoomClosed
	}
	return sync, err
}

// disconnect clears the live-connection binding if it still belongs to
// connID. It never deletes the participant or its score and progress, and it
// does not touch durable state.
func (a *Actor) disconnect(userID, connID string) {
	a.do(func() {
		if p := a.state.Participant(userID); p != nil && p.ConnID == connID {
			p.ConnID = ""
		}
	})
}

// start moves the room from waiting to live. Starting a non-waiting room is a
// silent no-op; a non-host caller and an empty question set are rejected to
// the caller only.
func (a *Actor) start(ctx context.Context, userID string) error {
	var err error
	ok := a.do(func() {
		if a.state.Status != domain.StatusWaiting {
			return
		}
		if a.state.HostID != userID {
			err = domain.ErrNotHost
			return
		}
		if len(a.state.Questions) == 0 {
			err = domain.ErrNoQuestions
			return
		}
		now := a.now()
		staged := a.state.Clone()
		staged.Status = domain.StatusLive
		staged.ContestStartedAt = cloneTime(&now)
		for _, p := range staged.Participants {
			p.Score = 0
			p.Answers = nil
			p.Completed = false
			p.Cursor = 0
			p.CursorStartedAt = cloneTime(&now)
		}
		if !a.commit(ctx, staged) {
			err = ErrSaveFailed
			return
		}
		a.publish(Event{Type: EventContestStarted, Payload: contestStartedPayload{
			ContestStartedAt: cloneTime(a.state.ContestStartedAt),
		}})
		for _, p := range a.state.Participants {
			if p.ConnID != "" {
				a.publish(Event{Type: EventYourState, ConnID: p.ConnID, Payload: p.Progress()})
			}
		}
		a.publishLeaderboard(now)
	})
	if !ok {
		return ErrRoomClosed
	}
	return err
}

// submit runs the progression algorithm for one answer. Expected concurrent
// noise (wrong lifecycle state, unknown participant, stale question, duplicate
// answer) is absorbed: accepted is false and no error is raised.
func (a *Actor) submit(ctx context.Context, userID, questionID string, selected *int) (domain.ProgressState, bool, error) {
	var (
		state    domain.ProgressState
		accepted bool
		err      error
	)
	ok := a.do(func() {
		if a.state.Status != domain.StatusLive {
			return
		}
		cur := a.state.Participant(userID)
		if cur == nil || cur.Completed {
			return
		}
		now := a.now()
		staged := a.state.Clone()
		p := staged.Participant(userID)

		// Defensive recovery; the start transition normally initializes this.
		if p.Cursor < 0 {
			p.Cursor = 0
			p.CursorStartedAt = cloneTime(&now)
		}

		// Idempotent end-of-sequence guard.
		if p.Cursor >= len(staged.Questions) {
			p.Completed = true
			if staged.AllCompleted() {
				staged.Status = domain.StatusEnded
			}
			if !a.commit(ctx, staged) {
				err = ErrSaveFailed
				return
			}
			accepted = true
			state = a.state.Participant(userID).Progress()
			a.publishLeaderboard(now)
			if a.state.Status == domain.StatusEnded {
				a.publish(Event{Type: EventContestEnded})
			}
			return
		}

		q := staged.Questions[p.Cursor]
		if q.ID != questionID {
			// Stale submission from a cursor that already advanced.
			return
		}
		if p.HasAnswered(questionID) {
			// At most one scored answer per question.
			return
		}

		elapsed := 0.0
		if p.CursorStartedAt != nil {
			elapsed = now.Sub(*p.CursorStartedAt).Seconds()
		}
		if elapsed < 0 {
			elapsed = 0
		}
		correct, awarded := Evaluate(q, selected, elapsed)

		p.Answers = append(p.Answers, domain.AnswerRecord{
			QuestionID:     questionID,
			SelectedOption: selected,
			Correct:        correct,
			Awarded:        awarded,
		})
		p.Score += awarded
		p.Cursor++
		p.CursorStartedAt = cloneTime(&now)
		if p.Cursor >= len(staged.Questions) {
			p.Completed = true
		}
		if staged.AllCompleted() {
			staged.Status = domain.StatusEnded
		}

		if !a.commit(ctx, staged) {
			err = ErrSaveFailed
			return
		}
		accepted = true
		state = a.state.Participant(userID).Progress()
		a.publishLeaderboard(now)
		if a.state.Status == domain.StatusEnded {
			a.publish(Event{Type: EventContestEnded})
		}
	})
	if !ok {
		return domain.ProgressState{}, false, ErrRoomClosed
	}
	return state, accepted, err
}

// replaceQuestions swaps the question set while the room is still waiting.
// Routed through the actor so uploads serialize with live mutations.
func (a *Actor) replaceQuestions(ctx context.Context, hostID string, questions []domain.Question) error {
	var err error
	ok := a.do(func() {
		if a.state.HostID != hostID {
			err = domain.ErrNotHost
			return
		}
		if a.state.Status != domain.StatusWaiting {
			err = domain.ErrContestLocked
			return
		}
		staged := a.state.Clone()
		staged.Questions = questions
		if !a.commit(ctx, staged) {
			err = ErrSaveFailed
		}
	})
	if !ok {
		return ErrRoomClosed
	}
	return err
}

func (a *Actor) leaderboard() (domain.Leaderboard, error) {
	var lb domain.Leaderboard
	if !a.do(func() { lb = buildLeaderboard(a.state, a.now()) }) {
		return domain.Leaderboard{}, ErrRoomClosed
	}
	return lb, nil
}

func (a *Actor) snapshot() (*domain.Room, error) {
	var snap *domain.Room
	if !a.do(func() { snap = a.state.Clone() }) {
		return nil, ErrRoomClosed
	}
	return snap, nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := *t
	return &ts
}

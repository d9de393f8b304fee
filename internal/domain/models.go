package domain

import "time"

// RoomStatus is the contest lifecycle state of a room.
// Transitions only move forward: waiting -> live -> ended.
type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusLive    RoomStatus = "live"
	StatusEnded   RoomStatus = "ended"
)

// Option is one of a question's four answer choices.
type Option struct {
	Text string `json:"text"`
}

// Question models an MCQ question with exactly four options.
type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"questionText"`
	Options            []Option `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Marks              int      `json:"marks"`     // defaults to 1
	TimeLimitSec       int      `json:"timeLimit"` // seconds, defaults to 30, bounded [5,300]
}

// AnswerRecord is one immutable entry in a participant's answer log.
// SelectedOption is nil when the participant's countdown expired with no choice.
type AnswerRecord struct {
	QuestionID     string `json:"questionId"`
	SelectedOption *int   `json:"selectedOption"`
	Correct        bool   `json:"isCorrect"`
	Awarded        int    `json:"awarded"`
}

// Participant is a joined user's per-room contest state. ConnID is the current
// live-connection binding; it is cleared on disconnect without touching score
// or progress, and is never persisted.
type Participant struct {
	UserID          string         `json:"userId"`
	DisplayName     string         `json:"username"`
	ConnID          string         `json:"-"`
	Score           int            `json:"score"`
	Answers         []AnswerRecord `json:"answers"`
	Completed       bool           `json:"completed"`
	Cursor          int            `json:"currentQuestionIndex"` // -1 before the contest starts
	CursorStartedAt *time.Time     `json:"currentQuestionStartedAt"`
}

// HasAnswered reports whether the answer log already holds an entry for questionID.
func (p *Participant) HasAnswered(questionID string) bool {
	for _, a := range p.Answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// Progress snapshots the participant's progression for outbound messages.
func (p *Participant) Progress() ProgressState {
	state := ProgressState{
		Cursor:    p.Cursor,
		Completed: p.Completed,
		Score:     p.Score,
	}
	if p.CursorStartedAt != nil {
		ts := *p.CursorStartedAt
		state.CursorStartedAt = &ts
	}
	return state
}

// Room is one contest instance, addressed by a short external code.
// Participants preserve join order; the leaderboard tie-break depends on it.
type Room struct {
	ID               string         `json:"roomId"`
	Name             string         `json:"roomName"`
	HostID           string         `json:"host"`
	Status           RoomStatus     `json:"status"`
	ContestStartedAt *time.Time     `json:"contestStartedAt"`
	Questions        []Question     `json:"questions"`
	Participants     []*Participant `json:"participants"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// Participant returns the participant with the given user ID, or nil.
func (r *Room) Participant(userID string) *Participant {
	for _, p := range r.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// AllCompleted reports whether every participant has finished the question
// sequence. False for a room nobody has joined.
func (r *Room) AllCompleted() bool {
	if len(r.Participants) == 0 {
		return false
	}
	for _, p := range r.Participants {
		if !p.Completed {
			return false
		}
	}
	return true
}

// Clone deep-copies the room so a mutation can be staged and persisted
// before being installed as the authoritative in-memory state.
func (r *Room) Clone() *Room {
	dup := *r
	if r.ContestStartedAt != nil {
		ts := *r.ContestStartedAt
		dup.ContestStartedAt = &ts
	}
	dup.Questions = make([]Question, len(r.Questions))
	for i, q := range r.Questions {
		dup.Questions[i] = q
		dup.Questions[i].Options = append([]Option(nil), q.Options...)
	}
	dup.Participants = make([]*Participant, len(r.Participants))
	for i, p := range r.Participants {
		pc := *p
		if p.CursorStartedAt != nil {
			ts := *p.CursorStartedAt
			pc.CursorStartedAt = &ts
		}
		pc.Answers = append([]AnswerRecord(nil), p.Answers...)
		dup.Participants[i] = &pc
	}
	return &dup
}

// LeaderboardEntry is one ranked row of a room's scoreboard.
type LeaderboardEntry struct {
	DisplayName string `json:"username"`
	Score       int    `json:"score"`
	Completed   bool   `json:"completed"`
}

// Leaderboard is the ranked view of a room's participants, sorted by score
// descending with ties kept in join order.
type Leaderboard struct {
	RoomID    string             `json:"roomId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// RosterEntry identifies one joined participant for the lobby view.
type RosterEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"username"`
}

// ProgressState is a participant's own progression, pushed to that
// participant only and embedded in the join handshake.
type ProgressState struct {
	Cursor          int        `json:"currentQuestionIndex"`
	CursorStartedAt *time.Time `json:"currentQuestionStartedAt"`
	Completed       bool       `json:"completed"`
	Score           int        `json:"score"`
}

// SyncState is the join handshake payload: the room's contest state plus the
// joiner's own progression.
type SyncState struct {
	Status           RoomStatus    `json:"status"`
	ContestStartedAt *time.Time    `json:"contestStartedAt"`
	Participant      ProgressState `json:"participant"`
}

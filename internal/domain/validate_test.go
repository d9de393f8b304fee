package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeQuestionDefaults(t *testing.T) {
	q := Question{
		Text:               "What is 2 + 2?",
		Options:            fourOptions(),
		CorrectOptionIndex: 1,
	}
	if err := NormalizeQuestion(&q); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if q.Marks != DefaultMarks {
		t.Fatalf("expected default marks %d, got %d", DefaultMarks, q.Marks)
	}
	if q.TimeLimitSec != DefaultTimeLimitSec {
		t.Fatalf("expected default time limit %d, got %d", DefaultTimeLimitSec, q.TimeLimitSec)
	}
}

func TestNormalizeQuestionRejections(t *testing.T) {
	cases := []struct {
		name string
		q    Question
	}{
		{"empty text", Question{Options: fourOptions(), CorrectOptionIndex: 0}},
		{"three options", Question{Text: "Q", Options: fourOptions()[:3], CorrectOptionIndex: 0}},
		{"correct index out of range", Question{Text: "Q", Options: fourOptions(), CorrectOptionIndex: 4}},
		{"negative correct index", Question{Text: "Q", Options: fourOptions(), CorrectOptionIndex: -1}},
		{"time limit too short", Question{Text: "Q", Options: fourOptions(), CorrectOptionIndex: 0, TimeLimitSec: 2}},
		{"time limit too long", Question{Text: "Q", Options: fourOptions(), CorrectOptionIndex: 0, TimeLimitSec: 500}},
	}
	for _, tc := range cases {
		q := tc.q
		if err := NormalizeQuestion(&q); !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("%s: expected ErrInvalidQuestion, got %v", tc.name, err)
		}
	}
}

func TestRoomCloneIsDeep(t *testing.T) {
	now := time.Now()
	room := &Room{
		ID:     "R1",
		Status: StatusLive,
		Questions: []Question{{
			ID: "q1", Text: "Q", Options: fourOptions(), CorrectOptionIndex: 0, Marks: 1, TimeLimitSec: 30,
		}},
		Participants: []*Participant{{
			UserID: "u1", DisplayName: "Alice", Cursor: 0, CursorStartedAt: &now,
			Answers: []AnswerRecord{{QuestionID: "q1", Correct: true, Awarded: 2}},
		}},
	}
	dup := room.Clone()
	dup.Participants[0].Score = 99
	dup.Participants[0].Answers[0].Awarded = 0
	dup.Questions[0].Options[0].Text = "mutated"

	if room.Participants[0].Score != 0 || room.Participants[0].Answers[0].Awarded != 2 {
		t.Fatalf("clone shares participant state")
	}
	if room.Questions[0].Options[0].Text == "mutated" {
		t.Fatalf("clone shares question options")
	}
}

func TestAllCompleted(t *testing.T) {
	room := &Room{}
	if room.AllCompleted() {
		t.Fatalf("empty room must not count as completed")
	}
	room.Participants = []*Participant{{UserID: "u1", Completed: true}, {UserID: "u2"}}
	if room.AllCompleted() {
		t.Fatalf("one pending participant must block completion")
	}
	room.Participants[1].Completed = true
	if !room.AllCompleted() {
		t.Fatalf("all participants completed")
	}
}

func fourOptions() []Option {
	return []Option{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}}
}

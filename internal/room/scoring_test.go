package room

import (
	"testing"

	"quiz-room-service/internal/domain"
)

func TestAwardDecaysLinearly(t *testing.T) {
	// marks=10, timeLimit=20s: instant answer doubles the marks,
	// half-time answer earns half the bonus, the limit earns no bonus.
	if got := Award(10, 20, 0); got != 20 {
		t.Fatalf("instant answer: expected 20, got %d", got)
	}
	if got := Award(10, 20, 10); got != 15 {
		t.Fatalf("half-time answer: expected 15, got %d", got)
	}
	if got := Award(10, 20, 20); got != 10 {
		t.Fatalf("at-limit answer: expected 10, got %d", got)
	}
	if got := Award(10, 20, 25); got != 10 {
		t.Fatalf("past-limit answer: expected bare marks, got %d", got)
	}
	if got := Award(1, 30, 15); got != 1 {
		t.Fatalf("bonus floors to zero: expected 1, got %d", got)
	}
}

func TestEvaluate(t *testing.T) {
	q := domain.Question{
		ID:                 "q1",
		Options:            []domain.Option{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}},
		CorrectOptionIndex: 2,
		Marks:              10,
		TimeLimitSec:       20,
	}

	two := 2
	correct, awarded := Evaluate(q, &two, 0)
	if !correct || awarded != 20 {
		t.Fatalf("correct in time: got correct=%v awarded=%d", correct, awarded)
	}

	// Past the limit the server-side clock wins even for the right option.
	correct, awarded = Evaluate(q, &two, 21)
	if correct || awarded != 0 {
		t.Fatalf("late answer: got correct=%v awarded=%d", correct, awarded)
	}

	one := 1
	correct, awarded = Evaluate(q, &one, 5)
	if correct || awarded != 0 {
		t.Fatalf("wrong option: got correct=%v awarded=%d", correct, awarded)
	}

	// nil selection means the client countdown expired; never correct.
	correct, awarded = Evaluate(q, nil, 5)
	if correct || awarded != 0 {
		t.Fatalf("nil option: got correct=%v awarded=%d", correct, awarded)
	}
}

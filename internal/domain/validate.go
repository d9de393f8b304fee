package domain

import "fmt"

const (
	// DefaultMarks is the score value of a question that does not specify one.
	DefaultMarks = 1
	// DefaultTimeLimitSec is the per-question countdown when none is given.
	DefaultTimeLimitSec = 30
	// MinTimeLimitSec and MaxTimeLimitSec bound the per-question countdown.
	MinTimeLimitSec = 5
	MaxTimeLimitSec = 300
)

// NormalizeQuestion validates a question and fills in defaults. It mutates q
// in place and returns ErrInvalidQuestion-wrapped failures.
func NormalizeQuestion(q *Question) error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty question text", ErrInvalidQuestion)
	}
	if len(q.Options) != 4 {
		return fmt.Errorf("%w: expected 4 options, got %d", ErrInvalidQuestion, len(q.Options))
	}
	for i, opt := range q.Options {
		if opt.Text == "" {
			return fmt.Errorf("%w: option %d has empty text", ErrInvalidQuestion, i)
		}
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct option index %d out of range", ErrInvalidQuestion, q.CorrectOptionIndex)
	}
	if q.Marks == 0 {
		q.Marks = DefaultMarks
	}
	if q.Marks < 0 {
		return fmt.Errorf("%w: negative marks", ErrInvalidQuestion)
	}
	if q.TimeLimitSec == 0 {
		q.TimeLimitSec = DefaultTimeLimitSec
	}
	if q.TimeLimitSec < MinTimeLimitSec || q.TimeLimitSec > MaxTimeLimitSec {
		return fmt.Errorf("%w: time limit %ds outside [%d,%d]", ErrInvalidQuestion, q.TimeLimitSec, MinTimeLimitSec, MaxTimeLimitSec)
	}
	return nil
}

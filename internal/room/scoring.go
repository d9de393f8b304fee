package room

import (
	"math"

	"quiz-room-service/internal/domain"
)

// Award computes the points for a correct answer: the question's marks plus a
// bonus that decays linearly from marks down to zero at the time limit.
func Award(marks, timeLimitSec int, elapsedSec float64) int {
	if timeLimitSec <= 0 {
		return marks
	}
	remaining := (float64(timeLimitSec) - elapsedSec) / float64(timeLimitSec)
	if remaining < 0 {
		remaining = 0
	}
	return marks + int(math.Floor(float64(marks)*remaining))
}

// Evaluate scores a submission against the current question. The elapsed time
// is measured server-side from the stored cursor timestamp; a submission past
// the time limit is never correct, and a nil selection (client countdown
// expired) is never correct.
func Evaluate(q domain.Question, selected *int, elapsedSec float64) (correct bool, awarded int) {
	if elapsedSec > float64(q.TimeLimitSec) {
		return false, 0
	}
	if selected == nil || *selected != q.CorrectOptionIndex {
		return false, 0
	}
	return true, Award(q.Marks, q.TimeLimitSec, elapsedSec)
}

package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room ID does not resolve.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotHost is returned when someone other than the host tries to start the contest.
	ErrNotHost = errors.New("only the host can start the contest")
	// ErrNoQuestions is returned when the host starts a contest with no questions uploaded.
	ErrNoQuestions = errors.New("no questions uploaded yet")
	// ErrContestLocked is returned when questions are replaced after the contest left waiting.
	ErrContestLocked = errors.New("contest already started")
	// ErrRoomExists is returned when a generated room code collides.
	ErrRoomExists = errors.New("room already exists")
	// ErrInvalidQuestion is returned when an uploaded question fails validation.
	ErrInvalidQuestion = errors.New("invalid question")
)

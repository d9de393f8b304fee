package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"quiz-room-service/internal/auth"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/room"
)

// RoomsHandler exposes the room CRUD endpoints: create a room, replace its
// question set while waiting, and read it back with answers stripped.
type RoomsHandler struct {
	engine *room.Engine
	auth   *auth.Verifier
	log    *zap.Logger
}

func NewRoomsHandler(engine *room.Engine, verifier *auth.Verifier, log *zap.Logger) *RoomsHandler {
	return &RoomsHandler{engine: engine, auth: verifier, log: log}
}

// Register mounts the handlers on mux.
func (h *RoomsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /rooms", h.createRoom)
	mux.HandleFunc("POST /rooms/{roomId}/questions", h.replaceQuestions)
	mux.HandleFunc("GET /rooms/{roomId}", h.getRoom)
}

type createRoomRequest struct {
	RoomName string `json:"roomName"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

type questionsRequest struct {
	Questions []domain.Question `json:"questions"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// roomView is the room document with correct option indices withheld.
type roomView struct {
	RoomID           string            `json:"roomId"`
	RoomName         string            `json:"roomName"`
	Host             string            `json:"host"`
	Status           string            `json:"status"`
	ContestStartedAt *time.Time        `json:"contestStartedAt"`
	Questions        []questionView    `json:"questions"`
	Participants     []participantView `json:"participants"`
	CreatedAt        time.Time         `json:"createdAt"`
}

type questionView struct {
	ID        string          `json:"id"`
	Text      string          `json:"questionText"`
	Options   []domain.Option `json:"options"`
	Marks     int             `json:"marks"`
	TimeLimit int             `json:"timeLimit"`
}

type participantView struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"username"`
	Score       int    `json:"score"`
	Completed   bool   `json:"completed"`
}

func (h *RoomsHandler) createRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomName == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Room name is required"})
		return
	}
	rm, err := h.engine.CreateRoom(r.Context(), req.RoomName, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomExists) {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Room already exists"})
			return
		}
		h.log.Error("create room failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error"})
		return
	}
	writeJSON(w, http.StatusCreated, createRoomResponse{RoomID: rm.ID})
}

func (h *RoomsHandler) replaceQuestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	roomID := r.PathValue("roomId")
	var req questionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return
	}
	err := h.engine.ReplaceQuestions(r.Context(), roomID, userID, req.Questions)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, messageResponse{Message: "Questions added successfully"})
	case errors.Is(err, domain.ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Room not found"})
	case errors.Is(err, domain.ErrNotHost):
		writeJSON(w, http.StatusForbidden, messageResponse{Message: "Only host can add questions"})
	case errors.Is(err, domain.ErrContestLocked):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Contest already started"})
	case errors.Is(err, domain.ErrInvalidQuestion):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
	default:
		h.log.Error("replace questions failed", zap.String("roomId", roomID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error"})
	}
}

func (h *RoomsHandler) getRoom(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}
	roomID := r.PathValue("roomId")
	rm, err := h.engine.Snapshot(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "Room not found"})
			return
		}
		h.log.Error("get room failed", zap.String("roomId", roomID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error"})
		return
	}
	writeJSON(w, http.StatusOK, newRoomView(rm))
}

func (h *RoomsHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := h.auth.UserID(bearerToken(r))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Unauthorized"})
		return "", false
	}
	return userID, true
}

func newRoomView(rm *domain.Room) roomView {
	view := roomView{
		RoomID:           rm.ID,
		RoomName:         rm.Name,
		Host:             rm.HostID,
		Status:           string(rm.Status),
		ContestStartedAt: rm.ContestStartedAt,
		Questions:        make([]questionView, 0, len(rm.Questions)),
		Participants:     make([]participantView, 0, len(rm.Participants)),
		CreatedAt:        rm.CreatedAt,
	}
	for _, q := range rm.Questions {
		view.Questions = append(view.Questions, questionView{
			ID:        q.ID,
			Text:      q.Text,
			Options:   q.Options,
			Marks:     q.Marks,
			TimeLimit: q.TimeLimitSec,
		})
	}
	for _, p := range rm.Participants {
		view.Participants = append(view.Participants, participantView{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			Completed:   p.Completed,
		})
	}
	return view
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

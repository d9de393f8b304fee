package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-room-service/internal/auth"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/room"
)

type WSHandler struct {
	engine   *room.Engine
	auth     *auth.Verifier
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *room.Engine, verifier *auth.Verifier, log *zap.Logger) *WSHandler {
	return &WSHandler{
		engine: engine,
		auth:   verifier,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID     string `json:"questionId"`
	SelectedOption *int   `json:"selectedOption"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and joins the authenticated user into the
// requested room. Joining happens at connect time; afterwards the connection
// carries start-contest, submit-answer, and leaderboard events inbound and
// the room's broadcast stream outbound.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	displayName := r.URL.Query().Get("name")
	if roomID == "" {
		http.Error(w, "missing roomId", http.StatusBadRequest)
		return
	}
	userID, err := h.auth.UserID(bearerToken(r))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()

	// Subscribe before joining so the roster and leaderboard broadcasts the
	// join itself triggers land in this connection's stream too.
	updates, cancel, err := h.engine.Subscribe(r.Context(), roomID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: joinErrorMessage(err)}})
		return
	}
	defer cancel()

	sync, err := h.engine.Join(r.Context(), roomID, userID, displayName, connID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: joinErrorMessage(err)}})
		return
	}
	defer h.engine.Disconnect(r.Context(), roomID, userID, connID)

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not allow concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	// Queue the handshake before the updates pump starts so sync-state is
	// always the first frame on the wire.
	send <- outboundMessage{Type: string(room.EventSyncState), Payload: sync}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				// Targeted events belong to exactly one connection.
				if ev.ConnID != "" && ev.ConnID != connID {
					continue
				}
				select {
				case send <- outboundMessage{Type: string(ev.Type), Payload: ev.Payload}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start-contest":
			if err := h.engine.Start(r.Context(), roomID, userID); err != nil {
				h.handleStartError(send, err)
			}
		case "submit-answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			state, accepted, err := h.engine.Submit(r.Context(), roomID, userID, payload.QuestionID, payload.SelectedOption)
			if err != nil {
				// Persistence exhaustion and the like: internal fault, the
				// submission is dropped without surfacing to the room.
				h.log.Error("submit dropped", zap.String("roomId", roomID), zap.Error(err))
				continue
			}
			if accepted {
				send <- outboundMessage{Type: string(room.EventYourState), Payload: state}
			}
		case "leaderboard":
			lb, err := h.engine.Leaderboard(r.Context(), roomID)
			if err != nil {
				send <- outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage{Type: string(room.EventLeaderboard), Payload: lb}
		default:
			send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handleStartError surfaces caller-visible rejections and logs the rest.
func (h *WSHandler) handleStartError(send chan<- outboundMessage, err error) {
	switch {
	case errors.Is(err, domain.ErrNotHost), errors.Is(err, domain.ErrNoQuestions), errors.Is(err, domain.ErrRoomNotFound):
		send <- outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
	default:
		h.log.Error("start contest failed", zap.Error(err))
	}
}

func joinErrorMessage(err error) string {
	if errors.Is(err, domain.ErrRoomNotFound) {
		return "Room not found"
	}
	return err.Error()
}

// bearerToken pulls the JWT from the Authorization header or, for browser
// websocket clients that cannot set headers, the token query parameter.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, found := strings.CutPrefix(h, "Bearer "); found {
			return tok
		}
	}
	return r.URL.Query().Get("token")
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"quiz-room-service/internal/auth"
	"quiz-room-service/internal/infra/memory"
	"quiz-room-service/internal/room"
)

func TestRoomCRUDFlow(t *testing.T) {
	engine, verifier, server := newRoomsTestServer(t)
	defer server.Close()
	defer engine.Close()

	hostToken := issue(t, verifier, "host-1")

	// Create a room.
	resp := doJSON(t, server, "POST", "/rooms", hostToken, map[string]any{"roomName": "Friday Quiz"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create room: status %d", resp.StatusCode)
	}
	var created struct {
		RoomID string `json:"roomId"`
	}
	decode(t, resp, &created)
	if created.RoomID == "" {
		t.Fatalf("expected room code")
	}

	// Upload questions.
	resp = doJSON(t, server, "POST", "/rooms/"+created.RoomID+"/questions", hostToken, map[string]any{
		"questions": []map[string]any{{
			"questionText":       "What is 2 + 2?",
			"options":            []map[string]any{{"text": "3"}, {"text": "4"}, {"text": "5"}, {"text": "6"}},
			"correctOptionIndex": 1,
			"marks":              10,
			"timeLimit":          20,
		}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload questions: status %d", resp.StatusCode)
	}

	// Read the room back; the correct option index must be withheld.
	resp = doJSON(t, server, "GET", "/rooms/"+created.RoomID, hostToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get room: status %d", resp.StatusCode)
	}
	var view map[string]any
	decode(t, resp, &view)
	questions, ok := view["questions"].([]any)
	if !ok || len(questions) != 1 {
		t.Fatalf("unexpected questions: %v", view["questions"])
	}
	q := questions[0].(map[string]any)
	if _, leaked := q["correctOptionIndex"]; leaked {
		t.Fatalf("correct option index leaked to clients: %v", q)
	}
	if q["questionText"] != "What is 2 + 2?" || q["timeLimit"] != float64(20) {
		t.Fatalf("unexpected question view: %v", q)
	}
}

func TestRoomEndpointsRequireAuth(t *testing.T) {
	engine, _, server := newRoomsTestServer(t)
	defer server.Close()
	defer engine.Close()

	resp := doJSON(t, server, "POST", "/rooms", "", map[string]any{"roomName": "Friday Quiz"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestQuestionsUploadGuards(t *testing.T) {
	engine, verifier, server := newRoomsTestServer(t)
	defer server.Close()
	defer engine.Close()

	hostToken := issue(t, verifier, "host-1")
	otherToken := issue(t, verifier, "u2")

	resp := doJSON(t, server, "POST", "/rooms", hostToken, map[string]any{"roomName": "Friday Quiz"})
	var created struct {
		RoomID string `json:"roomId"`
	}
	decode(t, resp, &created)

	valid := map[string]any{
		"questions": []map[string]any{{
			"questionText":       "Q",
			"options":            []map[string]any{{"text": "a"}, {"text": "b"}, {"text": "c"}, {"text": "d"}},
			"correctOptionIndex": 0,
		}},
	}

	if resp := doJSON(t, server, "POST", "/rooms/NOPE/questions", hostToken, valid); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown room: expected 404, got %d", resp.StatusCode)
	}
	if resp := doJSON(t, server, "POST", "/rooms/"+created.RoomID+"/questions", otherToken, valid); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-host upload: expected 403, got %d", resp.StatusCode)
	}

	malformed := map[string]any{
		"questions": []map[string]any{{
			"questionText":       "Q",
			"options":            []map[string]any{{"text": "a"}, {"text": "b"}},
			"correctOptionIndex": 0,
		}},
	}
	if resp := doJSON(t, server, "POST", "/rooms/"+created.RoomID+"/questions", hostToken, malformed); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed question: expected 400, got %d", resp.StatusCode)
	}

	// Lock uploads once the contest is live.
	if resp := doJSON(t, server, "POST", "/rooms/"+created.RoomID+"/questions", hostToken, valid); resp.StatusCode != http.StatusOK {
		t.Fatalf("valid upload: got %d", resp.StatusCode)
	}
	if err := engine.Start(context.Background(), created.RoomID, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if resp := doJSON(t, server, "POST", "/rooms/"+created.RoomID+"/questions", hostToken, valid); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("locked upload: expected 400, got %d", resp.StatusCode)
	}
}

func newRoomsTestServer(t *testing.T) (*room.Engine, *auth.Verifier, *httptest.Server) {
	t.Helper()
	engine := room.NewEngine(memory.NewRoomStore(), zap.NewNop())
	verifier := auth.NewVerifier("test-secret")
	handler := NewRoomsHandler(engine, verifier, zap.NewNop())

	mux := http.NewServeMux()
	handler.Register(mux)
	return engine, verifier, httptest.NewServer(mux)
}

func issue(t *testing.T, verifier *auth.Verifier, userID string) string {
	t.Helper()
	token, err := verifier.Issue(userID, time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

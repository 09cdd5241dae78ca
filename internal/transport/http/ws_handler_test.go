package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/game"
	"livequiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketGameFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	wsBase := "ws" + server.URL[len("http"):]

	host, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/host?quizId=quiz-1", nil)
	if err != nil {
		t.Fatalf("dial host: %v", err)
	}
	defer host.Close()

	created := readUntil(t, host, "session_created")
	pin, _ := created["pin"].(string)
	if len(pin) != 6 {
		t.Fatalf("expected 6-digit pin, got %q", pin)
	}

	player, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/play?session="+pin+"&name=Alice", nil)
	if err != nil {
		t.Fatalf("dial player: %v", err)
	}
	defer player.Close()

	joined := readUntil(t, player, "joined")
	if pid, _ := joined["participantId"].(string); pid == "" {
		t.Fatalf("expected participant id, got %+v", joined)
	}

	sendJSON(t, host, map[string]any{"type": "action", "payload": map[string]any{"action": "start"}})

	// both sides learn the question went live
	event := readUntil(t, player, "event")
	if event["type"] != string(domain.EventPhaseChanged) || event["phase"] != string(domain.PhaseQuestionActive) {
		t.Fatalf("unexpected player event %+v", event)
	}
	question, ok := event["question"].(map[string]any)
	if !ok {
		t.Fatalf("expected question in event, got %+v", event)
	}
	if choices, ok := question["choices"].([]any); !ok || len(choices) != 2 {
		t.Fatalf("expected sanitized choices, got %+v", question)
	}
	readUntil(t, host, "event")

	sendJSON(t, player, map[string]any{"type": "answer", "payload": map[string]any{
		"ordinal":   0,
		"answer":    map[string]any{"selected": []int{1}},
		"elapsedMs": 3000,
	}})
	ack := readUntil(t, player, "answer_ack")
	if ack["accepted"] != true {
		t.Fatalf("expected accepted ack, got %+v", ack)
	}

	sendJSON(t, host, map[string]any{"type": "action", "payload": map[string]any{"action": "reveal"}})
	sendJSON(t, host, map[string]any{"type": "action", "payload": map[string]any{"action": "show_results"}})

	for {
		event = readUntil(t, player, "event")
		if event["type"] == string(domain.EventRoundResults) {
			break
		}
	}
	lb, ok := event["leaderboard"].(map[string]any)
	if !ok {
		t.Fatalf("expected leaderboard in round results, got %+v", event)
	}
	entries, _ := lb["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %+v", entries)
	}
	first, _ := entries[0].(map[string]any)
	score, _ := first["score"].(float64)
	if first["displayName"] != "Alice" || score <= 0 {
		t.Fatalf("expected Alice with points, got %+v", first)
	}
}

func TestWebSocketRejectsBadAnswer(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	wsBase := "ws" + server.URL[len("http"):]

	host, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/host?quizId=quiz-1", nil)
	if err != nil {
		t.Fatalf("dial host: %v", err)
	}
	defer host.Close()
	created := readUntil(t, host, "session_created")
	pin, _ := created["pin"].(string)

	player, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/play?session="+pin+"&name=Bob", nil)
	if err != nil {
		t.Fatalf("dial player: %v", err)
	}
	defer player.Close()
	readUntil(t, player, "joined")

	sendJSON(t, host, map[string]any{"type": "action", "payload": map[string]any{"action": "start"}})
	readUntil(t, player, "event")

	// a free-text payload against an ABCD question is a validation error
	sendJSON(t, player, map[string]any{"type": "answer", "payload": map[string]any{
		"ordinal":   0,
		"answer":    map[string]any{"text": "four"},
		"elapsedMs": 1000,
	}})
	errMsg := readUntil(t, player, "error")
	if msg, _ := errMsg["message"].(string); msg == "" {
		t.Fatalf("expected error message, got %+v", errMsg)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %q: %v", expect, err)
		}
		if msg.Type == expect {
			return msg.Payload
		}
	}
}

func sendJSON(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write json: %v", err)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.IdleTimeout = 0

	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewSessionService(game.NewRegistry(cfg), quizRepo, memory.NewResultStore(), nil)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/host", wsHandler.ServeHost)
	mux.HandleFunc("/ws/play", wsHandler.ServePlay)
	return httptest.NewServer(mux)
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Sample",
			Questions: []domain.Question{
				{
					Prompt:       "What is 2 + 2?",
					TimeLimitSec: 20,
					Type:         domain.QuestionABCD,
					Choices: []domain.Choice{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4", Correct: true},
					},
				},
			},
		},
	}
}

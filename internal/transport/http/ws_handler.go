package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades host and player connections and wires them into the
// session use cases.
type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type sessionCreatedPayload struct {
	SessionID string `json:"sessionId"`
	Pin       string `json:"pin"`
}

type joinedPayload struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

type actionPayload struct {
	Action string `json:"action"`
}

type phasePayload struct {
	Phase string `json:"phase"`
}

type answerPayload struct {
	Ordinal   int                  `json:"ordinal"`
	Answer    domain.AnswerPayload `json:"answer"`
	ElapsedMs int64                `json:"elapsedMs"`
}

type answerAckPayload struct {
	Ordinal  int  `json:"ordinal"`
	Accepted bool `json:"accepted"`
}

// ServeHost upgrades a host connection: it creates a session for the
// requested quiz, relays phase-change actions, and forwards every broadcast.
func (h *WSHandler) ServeHost(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID, pin, err := h.service.CreateSession(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer func() {
		// Dropping the host socket ends the game for everyone.
		_, _ = h.service.HostTransition(r.Context(), sessionID, domain.ActionEnd)
	}()

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send, stopPumps := h.startPumps(conn, updates)
	defer stopPumps()

	send <- outboundMessage[any]{Type: "session_created", Payload: sessionCreatedPayload{SessionID: sessionID, Pin: pin}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "action":
			var payload actionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid action payload"}}
				continue
			}
			phase, err := h.service.HostTransition(r.Context(), sessionID, domain.HostAction(payload.Action))
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "phase", Payload: phasePayload{Phase: string(phase)}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}
}

// ServePlay upgrades a player connection: it joins the session addressed by
// id or pin, accepts answers, and forwards every broadcast.
func (h *WSHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	sessionRef := r.URL.Query().Get("session")
	displayName := r.URL.Query().Get("name")
	if sessionRef == "" || displayName == "" {
		http.Error(w, "missing session or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID, participant, err := h.service.Join(r.Context(), sessionRef, displayName)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Leave(r.Context(), sessionID, participant.ID)

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send, stopPumps := h.startPumps(conn, updates)
	defer stopPumps()

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{
		SessionID:     sessionID,
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			elapsed := time.Duration(payload.ElapsedMs) * time.Millisecond
			err := h.service.SubmitAnswer(r.Context(), sessionID, participant.ID, payload.Ordinal, payload.Answer, elapsed)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answer_ack", Payload: answerAckPayload{Ordinal: payload.Ordinal, Accepted: true}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}
}

// startPumps runs the writer goroutine plus the broadcast-forwarding
// goroutine, serializing all writes to the connection through one channel.
func (h *WSHandler) startPumps(conn *websocket.Conn, updates <-chan domain.Event) (chan<- outboundMessage[any], func()) {
	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "event", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	stop := func() {
		close(closeSignals)
		<-updatesDone
		close(send)
		<-writerDone
	}
	return send, stop
}

package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type    string `json:"type"` // "search" or "toggle"
	Content string `json:"content"`
}

// wsMessage is the outgoing WebSocket message format.
type wsMessage struct {
	Type     string         `json:"type"` // "hello", "event" or "error"
	ClientID string         `json:"client_id,omitempty"`
	Event    *session.Event `json:"event,omitempty"`
	State    *stateResponse `json:"state,omitempty"`
	Content  string         `json:"content,omitempty"`
}

// handleWebSocket streams session events to the client. Clients may send
// search keystrokes and layer toggles over the same connection; keystrokes
// go through the debouncer exactly like the HTTP endpoint.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := s.app.Session.Events().Subscribe(64)
	defer unsubscribe()

	clientID := uuid.NewString()
	state := s.state()
	if err := conn.WriteJSON(wsMessage{Type: "hello", ClientID: clientID, State: &state}); err != nil {
		return
	}

	replies := make(chan wsMessage, 8)
	quit := make(chan struct{})
	readerDone := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(readerDone)
		s.readLoop(conn, r, replies, quit)
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(wsMessage{Type: "event", ClientID: clientID, Event: &ev}); err != nil {
				return
			}
		case m := <-replies:
			m.ClientID = clientID
			if err := conn.WriteJSON(m); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}

func (s *Server) readLoop(conn *websocket.Conn, r *http.Request, replies chan<- wsMessage, quit <-chan struct{}) {
	reply := func(m wsMessage) {
		select {
		case replies <- m:
		case <-quit:
		}
	}
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			reply(wsMessage{Type: "error", Content: "invalid message format"})
			continue
		}

		switch req.Type {
		case "search":
			s.app.Search.Input(req.Content)
		case "toggle":
			l, err := layers.Parse(req.Content)
			if err != nil {
				reply(wsMessage{Type: "error", Content: err.Error()})
				continue
			}
			if _, err := s.app.Session.ToggleLayer(r.Context(), l); err != nil {
				reply(wsMessage{Type: "error", Content: extract.UserMessage(err)})
			}
		default:
			reply(wsMessage{Type: "error", Content: "unknown message type: " + req.Type})
		}
	}
}

package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/clauselens/clauselens/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Content string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type    string `json:"type"` // "response" or "error"
	Content string `json:"content"`
}

// handleChatSocket runs a conversational question session over a WebSocket.
// All connections share the startup index and one conversation history.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendChatError(conn, "invalid message format")
			continue
		}
		if req.Content == "" {
			s.sendChatError(conn, "content is required")
			continue
		}

		s.sessionMu.Lock()
		answer, err := s.session.Ask(r.Context(), req.Content)
		s.sessionMu.Unlock()

		if err != nil {
			if errors.Is(err, pipeline.ErrNoIndex) {
				s.sendChatError(conn, "No documents are indexed. Add documents to the data folder and restart.")
				continue
			}
			log.Printf("server: chat question failed: %v", err)
			s.sendChatError(conn, "question failed: "+err.Error())
			continue
		}

		s.sendChatResponse(conn, chatResponse{Type: "response", Content: answer})
	}
}

func (s *Server) sendChatResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func (s *Server) sendChatError(conn *websocket.Conn, message string) {
	resp := chatResponse{Type: "error", Content: message}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write error: %v", err)
	}
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/diogo/panjul/internal/chat"
	"github.com/diogo/panjul/internal/models"
)

// maxBodyBytes bounds a chat request, history included
const maxBodyBytes = 1 << 20

var errMessageRequired = errors.New("message is required")

// --- DTOs ---

type wireMessage struct {
	Role     string `json:"role"`
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}

type chatRequest struct {
	History []wireMessage `json:"history"`
	Message string        `json:"message"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback"`
}

// streamFrame is sent over the websocket: chunks while the reply arrives,
// then one done frame, or an error frame for a rejected request.
type streamFrame struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Reply    string `json:"reply,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
	Error    string `json:"error,omitempty"`
}

const (
	frameChunk = "chunk"
	frameDone  = "done"
	frameError = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat answers one message given the conversation so far
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	session, err := s.newSession(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session.Submit(r.Context(), req.Message)

	reply, _ := session.Conversation().Last()
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply.Text, Fallback: reply.Fallback})
}

// handleChatWS streams replies over a websocket. The connection may carry
// any number of requests, answered one at a time.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxBodyBytes)

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read", "error", err)
			}
			return
		}

		session, err := s.newSession(req)
		if err != nil {
			if err := conn.WriteJSON(streamFrame{Type: frameError, Error: err.Error()}); err != nil {
				return
			}
			continue
		}

		// Chunks are written from the submitting goroutine, so writes never overlap.
		var writeErr error
		session.SubmitStream(r.Context(), req.Message, func(chunk string) {
			if writeErr == nil {
				writeErr = conn.WriteJSON(streamFrame{Type: frameChunk, Text: chunk})
			}
		})
		if writeErr != nil {
			s.logger.Debug("websocket write", "error", writeErr)
			return
		}

		reply, _ := session.Conversation().Last()
		if err := conn.WriteJSON(streamFrame{Type: frameDone, Reply: reply.Text, Fallback: reply.Fallback}); err != nil {
			return
		}
	}
}

// newSession validates req and builds a session seeded with its history
func (s *Server) newSession(req chatRequest) (*chat.Session, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errMessageRequired
	}

	conv, err := toConversation(req.History)
	if err != nil {
		return nil, err
	}

	return chat.NewSession(s.gen, s.persona.FallbackText(),
		chat.WithConversation(conv),
		chat.WithLogger(s.logger),
	), nil
}

// toConversation converts wire history, rejecting unknown roles
func toConversation(history []wireMessage) (*models.Conversation, error) {
	conv := models.NewConversation()
	for i, wm := range history {
		role, err := models.ParseRole(wm.Role)
		if err != nil {
			return nil, fmt.Errorf("history[%d]: %w", i, err)
		}
		if err := conv.Append(models.Message{Role: role, Text: wm.Text, Fallback: wm.Fallback}); err != nil {
			return nil, err
		}
	}
	return conv, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

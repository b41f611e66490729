package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vbonduro/plantasking/internal/conversation"
	"github.com/vbonduro/plantasking/internal/logging"
	"github.com/vbonduro/plantasking/internal/persona"
	"github.com/vbonduro/plantasking/internal/service"
)

const maxMessageBody = 64 * 1024

type startConversationRequest struct {
	PlantID int64 `json:"plant_id"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type conversationResponse struct {
	ID      string             `json:"id"`
	Persona persona.Persona    `json:"persona"`
	State   conversation.State `json:"state"`
}

// messageResponse reports whether the message started a turn. Blank messages
// and messages to a closed conversation are ignored rather than rejected.
type messageResponse struct {
	Accepted bool               `json:"accepted"`
	State    conversation.State `json:"state"`
}

func (s *Server) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.service.StartConversation(r.Context(), req.PlantID)
	if err != nil {
		if errors.Is(err, service.ErrPlantNotFound) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start conversation")
		logging.FromContext(r.Context(), s.logger).Error("start conversation failed", "plant_id", req.PlantID, "error", err)
		return
	}

	writeJSON(w, http.StatusCreated, conversationResponse{
		ID:      session.ID(),
		Persona: session.Persona(),
		State:   session.Snapshot(),
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, conversationResponse{
		ID:      session.ID(),
		Persona: session.Persona(),
		State:   session.Snapshot(),
	})
}

// handleSendMessage appends the user's message before responding. Without
// ?wait=1 it answers 202 at once and the reply reaches clients through the
// event stream; with it, the handler answers once the turn has finished.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The turn outlives the request: a client that disconnects still gets
	// the reply in the conversation log.
	ctx := context.WithoutCancel(r.Context())
	st, done, accepted := session.SendAsync(ctx, req.Text)
	if !accepted {
		writeJSON(w, http.StatusOK, messageResponse{Accepted: false, State: st})
		return
	}

	if r.URL.Query().Get("wait") != "1" {
		writeJSON(w, http.StatusAccepted, messageResponse{Accepted: true, State: st})
		return
	}

	select {
	case final := <-done:
		writeJSON(w, http.StatusOK, messageResponse{Accepted: true, State: final})
	case <-r.Context().Done():
	}
}

func (s *Server) handleEndConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.End(id) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	s.broadcaster.Closed(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConversationEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session(w, r); !ok {
		return
	}
	s.broadcaster.ServeHTTP(w, r)
}

// session looks up the {id} conversation, writing a 404 when it is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*conversation.Session, bool) {
	session, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return nil, false
	}
	return session, true
}

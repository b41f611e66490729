package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tmaxmax/go-sse"
	"github.com/vbonduro/plantasking/internal/conversation"
)

var (
	stateEventType  = sse.Type("state")
	closedEventType = sse.Type("closed")
)

// Broadcaster fans conversation snapshots out to the SSE clients watching
// each conversation. Every conversation has its own topic.
type Broadcaster struct {
	srv    *sse.Server
	logger *slog.Logger
}

func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		srv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				id := chi.URLParam(s.Req, "id")
				if id == "" {
					return sse.Subscription{}, false
				}
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      []string{conversationTopic(id)},
				}, true
			},
		},
		logger: logger.With("module", "events"),
	}
}

func conversationTopic(sessionID string) string {
	return "conversation-" + sessionID
}

// Publish sends st to every client subscribed to the conversation. Its
// signature matches conversation.Observer.
func (b *Broadcaster) Publish(sessionID string, st conversation.State) {
	data, err := json.Marshal(st)
	if err != nil {
		b.logger.Error("failed to marshal conversation state", "session_id", sessionID, "error", err)
		return
	}

	msg := &sse.Message{Type: stateEventType}
	msg.AppendData(string(data))
	if err := b.srv.Publish(msg, conversationTopic(sessionID)); err != nil {
		b.logger.Warn("failed to publish conversation state", "session_id", sessionID, "error", err)
	}
}

// Closed tells the conversation's clients that it has ended.
func (b *Broadcaster) Closed(sessionID string) {
	msg := &sse.Message{Type: closedEventType}
	// SSE requires data on every event.
	msg.AppendData("bye")
	_ = b.srv.Publish(msg, conversationTopic(sessionID))
}

func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.srv.ServeHTTP(w, r)
}

func (b *Broadcaster) Shutdown(ctx context.Context) error {
	return b.srv.Shutdown(ctx)
}

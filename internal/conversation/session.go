package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vbonduro/plantasking/internal/domain"
	"github.com/vbonduro/plantasking/internal/persona"
	"github.com/vbonduro/plantasking/internal/prompt"
	"github.com/vbonduro/plantasking/internal/vision"
)

const (
	NoticeImageMissing = "Imagem da planta não encontrada."
	NoticeNetwork      = "Ops, minhas raízes perderam o sinal. Pode tentar de novo daqui a pouco?"
	NoticeBackend      = "Desculpe, não consegui pensar em uma resposta agora."
	NoticeEmpty        = "Fiquei sem palavras... Pode perguntar de novo?"
)

// ReasonEmptyReply is recorded when the backend answered but the reply held
// no text after the "Resposta:" marker.
const ReasonEmptyReply = "empty_reply"

var failureNotices = map[vision.FailureKind]string{
	vision.FailureNetwork:       NoticeNetwork,
	vision.FailureBackend:       NoticeBackend,
	vision.FailureEmptyResponse: NoticeEmpty,
}

// aiClient is the subset of vision.Client a Session requires.
type aiClient interface {
	Analyze(ctx context.Context, req vision.Request) vision.Outcome
}

// Session is one conversation with a plant. It owns the conversation State;
// every transition goes through dispatch so concurrent turns are applied one
// at a time.
type Session struct {
	id       string
	image    *domain.Image
	persona  persona.Persona
	ai       aiClient
	timeout  time.Duration
	logger   *slog.Logger
	onChange func(State)

	mu     sync.Mutex
	state  State
	closed bool
}

// NewSession starts a conversation grounded in image, seeded with the
// persona's greeting. image may be nil; turns then short-circuit with
// NoticeImageMissing. onChange, if set, is called with every new snapshot
// while the session lock is held and must not call back into the Session.
func NewSession(id string, image *domain.Image, p persona.Persona, ai aiClient, timeout time.Duration, logger *slog.Logger, onChange func(State)) *Session {
	return &Session{
		id:       id,
		image:    image,
		persona:  p,
		ai:       ai,
		timeout:  timeout,
		logger:   logger.With("session_id", id),
		onChange: onChange,
		state:    NewState(p.Greeting()),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Persona() persona.Persona {
	return s.persona
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send runs a full turn and returns the snapshot after the reply landed. A
// blank text or a closed session is a no-op and reports false.
func (s *Session) Send(ctx context.Context, text string) (State, bool) {
	if _, ok := s.begin(text); !ok {
		return s.Snapshot(), false
	}
	return s.reply(ctx, text), true
}

// SendAsync appends the user message before returning and delivers the
// snapshot after the reply on the returned channel.
func (s *Session) SendAsync(ctx context.Context, text string) (State, <-chan State, bool) {
	st, ok := s.begin(text)
	if !ok {
		return st, nil, false
	}
	done := make(chan State, 1)
	go func() {
		done <- s.reply(ctx, text)
		close(done)
	}()
	return st, done, true
}

func (s *Session) Clear() {
	s.dispatch(Cleared{})
}

// Close tears the session down. Replies that arrive afterwards are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) begin(text string) (State, bool) {
	if strings.TrimSpace(text) == "" {
		return s.Snapshot(), false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state, false
	}
	s.applyLocked(UserMessageSubmitted{Text: text})
	return s.state, true
}

func (s *Session) reply(ctx context.Context, text string) State {
	if s.image.Empty() {
		s.logger.Warn("chat turn without plant image")
		return s.dispatch(ReplyReceived{Text: NoticeImageMissing})
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	out := s.ai.Analyze(ctx, vision.Request{
		Image:  *s.image,
		Prompt: prompt.BuildChatPrompt(text, s.persona.Prompt()),
	})
	if !out.OK() {
		s.logger.Error("chat reply failed",
			"failure", out.Failure,
			"error", out.Err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return s.dispatch(ReplyFailed{Notice: failureNotices[out.Failure], Reason: string(out.Failure)})
	}

	reply := vision.ParseChatReply(out.Text)
	// The backend did answer, but only with template scaffolding ("Resposta:"
	// and nothing after it). An empty BOT bubble says nothing to the user, so
	// the turn shows NoticeEmpty under its own reason instead of the client's
	// empty_response.
	if reply == "" {
		s.logger.Warn("chat reply had no text after marker")
		return s.dispatch(ReplyFailed{Notice: NoticeEmpty, Reason: ReasonEmptyReply})
	}
	idx, _ := vision.ParseChatIndex(out.Text)
	s.logger.Info("chat reply received", "index", idx, "duration_ms", time.Since(start).Milliseconds())
	return s.dispatch(ReplyReceived{Text: reply})
}

func (s *Session) dispatch(ev Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Debug("dropping event for closed session")
		return s.state
	}
	s.applyLocked(ev)
	return s.state
}

func (s *Session) applyLocked(ev Event) {
	s.state = Reduce(s.state, ev)
	if s.onChange != nil {
		s.onChange(s.state)
	}
}

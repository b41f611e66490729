package conversation

import "github.com/vbonduro/plantasking/internal/domain"

// State is an immutable snapshot of a conversation. Every change is produced
// by Reduce and yields a new Messages slice, so snapshots handed out earlier
// never observe later appends.
type State struct {
	Messages  []domain.Message `json:"messages"`
	IsLoading bool             `json:"is_loading"`
	Error     string           `json:"error,omitempty"`

	// inFlight counts submitted turns still waiting for a reply.
	inFlight int
}

// NewState returns a conversation seeded with a bot greeting. An empty
// greeting yields an empty log.
func NewState(greeting string) State {
	if greeting == "" {
		return State{Messages: []domain.Message{}}
	}
	return State{Messages: []domain.Message{{Text: greeting, Author: domain.AuthorBot}}}
}

// Event is a state transition.
type Event interface {
	apply(State) State
}

// UserMessageSubmitted appends the user's turn and marks a reply as pending.
type UserMessageSubmitted struct {
	Text string
}

// ReplyReceived appends the bot's answer to one pending turn.
type ReplyReceived struct {
	Text string
}

// ReplyFailed appends a user-facing notice in place of the bot's answer and
// records Reason as the conversation error.
type ReplyFailed struct {
	Notice string
	Reason string
}

// Cleared drops the log back to an empty conversation. Pending turns still
// land when their replies arrive.
type Cleared struct{}

func Reduce(s State, ev Event) State {
	return ev.apply(s)
}

func (e UserMessageSubmitted) apply(s State) State {
	s.Messages = appendMessage(s.Messages, domain.Message{Text: e.Text, Author: domain.AuthorUser})
	s.inFlight++
	s.IsLoading = true
	s.Error = ""
	return s
}

func (e ReplyReceived) apply(s State) State {
	s.Messages = appendMessage(s.Messages, domain.Message{Text: e.Text, Author: domain.AuthorBot})
	return settle(s)
}

func (e ReplyFailed) apply(s State) State {
	s.Messages = appendMessage(s.Messages, domain.Message{Text: e.Notice, Author: domain.AuthorBot})
	s.Error = e.Reason
	return settle(s)
}

func (Cleared) apply(s State) State {
	s.Messages = []domain.Message{}
	s.Error = ""
	return s
}

func settle(s State) State {
	if s.inFlight > 0 {
		s.inFlight--
	}
	s.IsLoading = s.inFlight > 0
	return s
}

func appendMessage(msgs []domain.Message, m domain.Message) []domain.Message {
	out := make([]domain.Message, len(msgs)+1)
	copy(out, msgs)
	out[len(msgs)] = m
	return out
}

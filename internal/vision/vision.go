package vision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/vbonduro/plantasking/internal/domain"
)

// Sentinel errors adapters wrap so Client can classify failures without
// knowing which SDK produced them.
var (
	ErrTransport     = errors.New("transport failure")
	ErrBackend       = errors.New("backend error")
	ErrEmptyResponse = errors.New("empty response")
)

// Request is one image-plus-prompt call to a generative model.
type Request struct {
	Image  domain.Image
	Prompt string
}

// Generator is implemented by each backend adapter. It returns the model's
// text verbatim.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type FailureKind string

const (
	FailureNetwork       FailureKind = "network"
	FailureBackend       FailureKind = "backend_error"
	FailureEmptyResponse FailureKind = "empty_response"
)

// Outcome is either a successful raw text payload or a classified failure.
// Err keeps the underlying cause for logging only.
type Outcome struct {
	Text    string
	Failure FailureKind
	Err     error
}

func (o Outcome) OK() bool {
	return o.Failure == ""
}

func Success(text string) Outcome {
	return Outcome{Text: text}
}

func Failed(kind FailureKind, err error) Outcome {
	return Outcome{Failure: kind, Err: err}
}

// Client turns a Generator's (string, error) result into an Outcome. It does
// not retry and does not touch the returned text.
type Client struct {
	gen Generator
}

func NewClient(gen Generator) *Client {
	return &Client{gen: gen}
}

func (c *Client) Analyze(ctx context.Context, req Request) Outcome {
	text, err := c.gen.Generate(ctx, req)
	if err != nil {
		return Failed(Classify(err), err)
	}
	if strings.TrimSpace(text) == "" {
		return Failed(FailureEmptyResponse, ErrEmptyResponse)
	}
	return Success(text)
}

// WrapError tags an adapter error with ErrTransport when the call never got
// an answer from the backend (dial, TLS, timeout, cancellation) and with
// ErrBackend otherwise. Errors already carrying ErrEmptyResponse keep it.
func WrapError(backend string, err error) error {
	if errors.Is(err, ErrEmptyResponse) {
		return fmt.Errorf("%s: %w", backend, err)
	}
	sentinel := ErrBackend
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		sentinel = ErrTransport
	}
	return fmt.Errorf("%s: %w: %w", backend, sentinel, err)
}

// Classify maps an adapter error onto a FailureKind. Anything that is not
// recognisably a transport problem is treated as a backend error.
func Classify(err error) FailureKind {
	if errors.Is(err, ErrEmptyResponse) {
		return FailureEmptyResponse
	}
	if errors.Is(err, ErrTransport) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return FailureNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureNetwork
	}
	return FailureBackend
}

// NormaliseMIME maps image MIME types onto the set every backend accepts.
// Unknown types are coerced to jpeg.
func NormaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}

package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/vbonduro/plantasking/internal/vision"
)

type OllamaGenerator struct {
	model  string
	client *api.Client
}

func NewOllamaGenerator(host, model string) (*OllamaGenerator, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	return &OllamaGenerator{
		model:  model,
		client: api.NewClient(u, &http.Client{}),
	}, nil
}

func (g *OllamaGenerator) Generate(ctx context.Context, req vision.Request) (string, error) {
	stream := false
	genReq := &api.GenerateRequest{
		Model:  g.model,
		Prompt: req.Prompt,
		Stream: &stream,
	}
	if len(req.Image.Data) > 0 {
		genReq.Images = []api.ImageData{req.Image.Data}
	}

	var text string
	if err := g.client.Generate(ctx, genReq, func(res api.GenerateResponse) error {
		text += res.Response
		return nil
	}); err != nil {
		return "", vision.WrapError("ollama", err)
	}
	return text, nil
}

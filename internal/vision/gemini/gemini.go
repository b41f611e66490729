package gemini

import (
	"context"
	"fmt"

	"github.com/vbonduro/plantasking/internal/vision"
	"google.golang.org/genai"
)

type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

// NewGeminiGenerator creates a Generator backed by the Gemini API. baseURL
// may be empty to use the SDK default endpoint.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName, baseURL string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, modelName: modelName}, nil
}

func contents(req vision.Request) []*genai.Content {
	parts := make([]*genai.Part, 0, 2)
	if len(req.Image.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, vision.NormaliseMIME(req.Image.MimeType)))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req vision.Request) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents(req), nil)
	if err != nil {
		return "", vision.WrapError("gemini", err)
	}
	return res.Text(), nil
}

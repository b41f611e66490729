package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/vbonduro/plantasking/internal/vision"
)

const maxTokens = 1024

type OpenAIGenerator struct {
	model  string
	client *goopenai.Client
}

func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	return newOpenAIGenerator(goopenai.DefaultConfig(apiKey), model)
}

func newOpenAIGenerator(cfg goopenai.ClientConfig, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		model:  model,
		client: goopenai.NewClientWithConfig(cfg),
	}
}

func chatMessages(req vision.Request) []goopenai.ChatCompletionMessage {
	parts := []goopenai.ChatMessagePart{{Type: goopenai.ChatMessagePartTypeText, Text: req.Prompt}}
	if len(req.Image.Data) > 0 {
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			vision.NormaliseMIME(req.Image.MimeType),
			base64.StdEncoding.EncodeToString(req.Image.Data))
		parts = append(parts, goopenai.ChatMessagePart{
			Type:     goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{URL: dataURL, Detail: goopenai.ImageURLDetailAuto},
		})
	}
	return []goopenai.ChatCompletionMessage{{
		Role:         goopenai.ChatMessageRoleUser,
		MultiContent: parts,
	}}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req vision.Request) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: maxTokens,
		Messages:  chatMessages(req),
	})
	if err != nil {
		return "", vision.WrapError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices: %w", vision.ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

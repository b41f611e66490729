package claude

import (
	"context"
	"encoding/base64"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/vbonduro/plantasking/internal/vision"
)

// maxTokens leaves room for a short persona reply; the analysis template is
// two lines.
const maxTokens = 1024

type ClaudeGenerator struct {
	model  string
	client *anthropic.Client
}

func NewClaudeGenerator(apiKey, model string) *ClaudeGenerator {
	return newClaudeGenerator(apiKey, model)
}

func newClaudeGenerator(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeGenerator {
	return &ClaudeGenerator{
		model:  model,
		client: anthropic.NewClient(apiKey, opts...),
	}
}

// buildMessages constructs the single user turn carrying the image and prompt.
func buildMessages(req vision.Request) []anthropic.Message {
	content := make([]anthropic.MessageContent, 0, 2)
	if len(req.Image.Data) > 0 {
		content = append(content, anthropic.NewImageMessageContent(
			anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				vision.NormaliseMIME(req.Image.MimeType),
				base64.StdEncoding.EncodeToString(req.Image.Data),
			),
		))
	}
	content = append(content, anthropic.NewTextMessageContent(req.Prompt))
	return []anthropic.Message{{Role: anthropic.RoleUser, Content: content}}
}

func (g *ClaudeGenerator) Generate(ctx context.Context, req vision.Request) (string, error) {
	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(req),
	})
	if err != nil {
		return "", vision.WrapError("claude", err)
	}

	return resp.GetFirstContentText(), nil
}

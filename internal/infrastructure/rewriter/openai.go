package rewriter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"NewsAgent/internal/config"
	"NewsAgent/internal/ports"
)

const requestTimeout = 30 * time.Second

// OpenAIRewriter implements ports.Rewriter on top of any
// OpenAI-compatible chat-completions API.
type OpenAIRewriter struct {
	client       openai.Client
	model        string
	systemPrompt string
}

var _ ports.Rewriter = (*OpenAIRewriter)(nil)

// NewOpenAIRewriter builds a client from configuration.
func NewOpenAIRewriter(cfg config.RewriterConfig) *OpenAIRewriter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIRewriter{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
	}
}

// Rewrite asks the model to turn a raw draft into publishable copy.
func (r *OpenAIRewriter) Rewrite(ctx context.Context, title, content, sourceURL string) (string, error) {
	if r.model == "" {
		return "", fmt.Errorf("rewriter misconfigured: model is empty")
	}

	prompt := fmt.Sprintf("Title: %s\n\nDescription: %s\n\nLink: %s", title, content, sourceURL)

	response, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(r.systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(300),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	rewritten := strings.TrimSpace(response.Choices[0].Message.Content)
	if rewritten == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}

	return rewritten, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are the editor of a business news channel. Rewrite the draft into a short engaging post."
	}
	return prompt
}

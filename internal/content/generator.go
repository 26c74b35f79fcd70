package content

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mhasan/tweetpilot/internal/apperror"
)

// Result is one completed generation: the text, the prompt that produced it
// and the token usage reported by the API.
type Result struct {
	Content    string
	Prompt     string
	TokensUsed int
}

// Generator produces tweet text through the OpenAI chat completion API.
type Generator struct {
	client *openai.Client
	model  string
}

// NewGenerator creates a Generator. baseURL overrides the API endpoint when
// non-empty (proxies, compatible servers, tests).
func NewGenerator(apiKey, baseURL string) *Generator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Generator{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4,
	}
}

// Tweet generates a single tweet about topic. userContext, when non-empty,
// tells the model who it is writing as.
func (g *Generator) Tweet(ctx context.Context, topic, style, language, userContext string) (*Result, error) {
	return g.complete(ctx, language, tweetPrompt(topic, style, userContext), 280)
}

// Thread generates a numbered thread of numTweets tweets about topic.
func (g *Generator) Thread(ctx context.Context, topic, style, language string, numTweets int) (*Result, error) {
	return g.complete(ctx, language, threadPrompt(topic, style, numTweets), 1000)
}

// Reply generates a reply to the given tweet text.
func (g *Generator) Reply(ctx context.Context, original, style, language, userContext string) (*Result, error) {
	return g.complete(ctx, language, replyPrompt(original, style, userContext), 280)
}

func (g *Generator) complete(ctx context.Context, language, prompt string, maxTokens int) (*Result, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(language)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, apperror.Unavailable("content generation", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("content: completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("content: completion returned empty text")
	}

	return &Result{
		Content:    text,
		Prompt:     prompt,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

package signal

import (
	"context"
	"strings"

	"trendpulse/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

const maxClassifierInput = 6000

type openAIChatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIClassifier asks a chat model for a one-word label and falls back to
// the lexicon whenever the call fails or the answer is unusable.
type OpenAIClassifier struct {
	client   openAIChatClient
	model    string
	fallback TextClassifier
}

// NewOpenAIClassifier returns nil when no key is configured.
func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClassifier{
		client:   &openAIClient{client: client},
		model:    model,
		fallback: Lexicon{},
	}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) domain.Sentiment {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.SentimentNeutral
	}
	if len(text) > maxClassifierInput {
		text = text[:maxClassifierInput]
	}

	systemPrompt := "You label crypto social posts. Answer with exactly one word: bullish, bearish or neutral."
	completion, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("model", c.model).Msg("llm sentiment failed, using lexicon")
		return c.fallback.Classify(ctx, text)
	}
	if len(completion.Choices) == 0 {
		return c.fallback.Classify(ctx, text)
	}

	label, ok := parseLabel(completion.Choices[0].Message.Content)
	if !ok {
		return c.fallback.Classify(ctx, text)
	}
	return label
}

func parseLabel(raw string) (domain.Sentiment, bool) {
	raw = strings.ToLower(strings.Trim(strings.TrimSpace(raw), ".!\"'`"))
	switch raw {
	case "bull", "bullish", "positive":
		return domain.SentimentBullish, true
	case "bear", "bearish", "negative":
		return domain.SentimentBearish, true
	case "neutral", "mixed":
		return domain.SentimentNeutral, true
	default:
		return "", false
	}
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

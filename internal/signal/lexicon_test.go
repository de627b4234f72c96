package signal

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"trendpulse/internal/domain"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
)

func TestLexiconSentiment(t *testing.T) {
	assert.Equal(t, domain.SentimentBullish, LexiconSentiment("Breakout incoming, to the moon 🚀"))
	assert.Equal(t, domain.SentimentBearish, LexiconSentiment("another rug, total scam, dump it"))
	assert.Equal(t, domain.SentimentNeutral, LexiconSentiment("pump then dump"))
	assert.Equal(t, domain.SentimentNeutral, LexiconSentiment(""))
}

func TestLexiconClassifier(t *testing.T) {
	var c TextClassifier = Lexicon{}
	assert.Equal(t, domain.SentimentBullish, c.Classify(context.Background(), "HODL and accumulate"))
}

func TestPlaceholderSparklineStaysInBand(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	got := PlaceholderSparkline(100, SparklinePoints, 0.1, rnd)

	assert.Len(t, got, SparklinePoints)
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 95.0)
		assert.Less(t, v, 105.0)
	}
	assert.Empty(t, PlaceholderSparkline(100, 9, 0.1, nil))
}

func TestSampleSeries(t *testing.T) {
	prices := make([]float64, 168)
	for i := range prices {
		prices[i] = float64(i)
	}
	got := SampleSeries(prices, 9)
	assert.Len(t, got, 9)
	// step = 18, first index = 168 - 162 = 6
	assert.Equal(t, 6.0, got[0])
	assert.Equal(t, 150.0, got[8])

	short := SampleSeries([]float64{1, 2, 3}, 9)
	assert.Len(t, short, 9)
	assert.Equal(t, 1.0, short[0])
	assert.Equal(t, 3.0, short[8])

	assert.Empty(t, SampleSeries(nil, 9))
}

type chatStub struct {
	content string
	err     error
}

func (s chatStub) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: s.content}}},
	}, nil
}

func TestOpenAIClassifierUsesModelLabel(t *testing.T) {
	c := &OpenAIClassifier{client: chatStub{content: " Bearish."}, model: "test", fallback: Lexicon{}}
	assert.Equal(t, domain.SentimentBearish, c.Classify(context.Background(), "to the moon"))
}

func TestOpenAIClassifierFallsBackToLexicon(t *testing.T) {
	failing := &OpenAIClassifier{client: chatStub{err: errors.New("quota")}, model: "test", fallback: Lexicon{}}
	assert.Equal(t, domain.SentimentBullish, failing.Classify(context.Background(), "to the moon"))

	garbled := &OpenAIClassifier{client: chatStub{content: "maybe?"}, model: "test", fallback: Lexicon{}}
	assert.Equal(t, domain.SentimentBearish, garbled.Classify(context.Background(), "crash and dump"))
}

func TestNewOpenAIClassifierRequiresKey(t *testing.T) {
	assert.Nil(t, NewOpenAIClassifier("  ", ""))
}

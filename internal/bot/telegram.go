package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trendpulse/internal/domain"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

const (
	defaultListSize = 5
	maxListSize     = 10
	commandTimeout  = 45 * time.Second
)

// Feed is the aggregator surface the bot reads from.
type Feed interface {
	Trending(ctx context.Context) domain.AssetBatch
	Binance(ctx context.Context) domain.AssetBatch
	Alpha(ctx context.Context) domain.AssetBatch
	SocialSentiment(ctx context.Context) domain.SocialBatch
	BreakingNews(ctx context.Context) domain.NewsBatch
}

var newBotFunc = tele.NewBot

// StartTelegramBot starts long polling in the background and returns the bot
// so the caller can stop it. Returns nil when no token is configured.
func StartTelegramBot(token string, feed Feed) *tele.Bot {
	if strings.TrimSpace(token) == "" {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	b, err := newBotFunc(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create Telegram bot")
		return nil
	}

	Register(b, feed)

	log.Info().Msg("Telegram bot started")
	go b.Start()
	return b
}

// Registrar is the part of *tele.Bot used to bind commands.
type Registrar interface {
	Handle(endpoint any, h tele.HandlerFunc, m ...tele.MiddlewareFunc)
}

// Register binds every command to feed.
func Register(b Registrar, feed Feed) {
	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/trending", assetCommand("Trending", feed.Trending))
	b.Handle("/binance", assetCommand("Binance FOMO", feed.Binance))
	b.Handle("/alpha", assetCommand("Binance Alpha", feed.Alpha))

	b.Handle("/sentiment", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(FormatSocial(feed.SocialSentiment(ctx)))
	})

	b.Handle("/news", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(FormatNews(feed.BreakingNews(ctx)))
	})
}

func assetCommand(title string, fetch func(context.Context) domain.AssetBatch) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := listSize(c.Args())
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(FormatAssets(title, fetch(ctx), n))
	}
}

func listSize(args []string) int {
	if len(args) == 0 {
		return defaultListSize
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return defaultListSize
	}
	if n > maxListSize {
		return maxListSize
	}
	return n
}

func FormatAssets(title string, batch domain.AssetBatch, n int) string {
	if len(batch.Items) == 0 {
		return fmt.Sprintf("%s: no data right now (%s)", title, batch.Provenance)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", title, batch.Provenance)
	for i, a := range batch.Items {
		if i >= n {
			break
		}
		fmt.Fprintf(&sb, "%d. %s (%s) $%s %+.2f%% | score %d | %s",
			i+1, a.Name, a.Symbol, formatPrice(a.Price), a.Change24h, a.TrendScore, a.Sentiment)
		if a.HasWhaleAlert {
			sb.WriteString(" | whale")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatSocial(batch domain.SocialBatch) string {
	if len(batch.Items) == 0 {
		return "Social sentiment: no data right now"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Social sentiment (%s)\n", batch.Provenance)
	for _, s := range batch.Items {
		fmt.Fprintf(&sb, "%s: %d mentions, %s\n", s.Hashtag, s.Mentions, s.Sentiment)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatNews(batch domain.NewsBatch) string {
	if len(batch.Items) == 0 {
		return "Breaking news: nothing new"
	}
	var sb strings.Builder
	sb.WriteString("Breaking news\n")
	for _, item := range batch.Items {
		fmt.Fprintf(&sb, "[%s] %s\n", item.TimeLabel, item.Headline)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatPrice(p float64) string {
	switch {
	case p >= 1:
		return strconv.FormatFloat(p, 'f', 2, 64)
	case p >= 0.01:
		return strconv.FormatFloat(p, 'f', 4, 64)
	default:
		return strconv.FormatFloat(p, 'f', 8, 64)
	}
}

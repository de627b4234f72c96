// Command trendctl runs one aggregation and prints the batch.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"trendpulse/internal/app"
	"trendpulse/internal/config"
	"trendpulse/internal/domain"
	"trendpulse/pkg/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
)

type Feed interface {
	Trending(ctx context.Context) domain.AssetBatch
	Binance(ctx context.Context) domain.AssetBatch
	Alpha(ctx context.Context) domain.AssetBatch
	SocialSentiment(ctx context.Context) domain.SocialBatch
	BreakingNews(ctx context.Context) domain.NewsBatch
	Status(ctx context.Context) domain.StatusReport
}

type TweetCounter interface {
	Available() bool
	CountTweets(ctx context.Context, query string) int
}

type ScanRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// backend is what every subcommand needs; close releases cache connections.
type backend struct {
	feed    Feed
	tweets  TweetCounter
	scanner ScanRunner
	close   func()
}

var openBackendFunc = func(ctx context.Context, logLevel string) (*backend, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)

	a := app.Build(ctx, cfg, trace.NewNoopTracerProvider().Tracer("trendctl"), nil)
	return &backend{feed: a.Feed, tweets: a.Twitter, scanner: a.ScanRunner(), close: a.Close}, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		format   string
		logLevel string
		be       *backend
	)

	root := &cobra.Command{
		Use:           "trendctl",
		Short:         "Query the trendpulse aggregations from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (json|yaml)", format)
			}
			var err error
			be, err = openBackendFunc(cmd.Context(), logLevel)
			if err != nil {
				return fmt.Errorf("open backend: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if be != nil && be.close != nil {
				be.close()
			}
		},
	}
	root.PersistentFlags().StringVar(&format, "format", "json", "Output format (json|yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for diagnostics on stderr")

	feedCmd := func(use, short string, fetch func(context.Context, Feed) any) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return write(cmd.OutOrStdout(), format, fetch(cmd.Context(), be.feed))
			},
		}
	}

	root.AddCommand(
		feedCmd("trending", "Trending coins merged with search and social signals", func(ctx context.Context, f Feed) any {
			return f.Trending(ctx)
		}),
		feedCmd("binance", "Top coins by volume with Binance spot listings and gainers", func(ctx context.Context, f Feed) any {
			return f.Binance(ctx)
		}),
		feedCmd("alpha", "Binance Alpha early listings", func(ctx context.Context, f Feed) any {
			return f.Alpha(ctx)
		}),
		feedCmd("social", "Hashtag mentions and sentiment", func(ctx context.Context, f Feed) any {
			return f.SocialSentiment(ctx)
		}),
		feedCmd("news", "Breaking lowcap news", func(ctx context.Context, f Feed) any {
			return f.BreakingNews(ctx)
		}),
		feedCmd("status", "Upstream provider status", func(ctx context.Context, f Feed) any {
			return f.Status(ctx)
		}),
		&cobra.Command{
			Use:   "scan",
			Short: "Run the lowcap scanner once and refresh the trending cache",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if be.scanner == nil {
					return fmt.Errorf("scanner is not enabled (set SCANNER_ENABLED=true)")
				}
				n, err := be.scanner.RunOnce(cmd.Context())
				if err != nil {
					return fmt.Errorf("scan: %w", err)
				}
				log.Info().Int("items", n).Msg("scan complete")
				return write(cmd.OutOrStdout(), format, map[string]any{"status": "ok", "items_written": n})
			},
		},
		&cobra.Command{
			Use:   "count <query>",
			Short: "Count recent posts on X matching a query",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if be.tweets == nil || !be.tweets.Available() {
					return fmt.Errorf("social provider not configured (set TWITTER_BEARER_TOKEN)")
				}
				query := strings.Join(args, " ")
				return write(cmd.OutOrStdout(), format, map[string]any{"query": query, "count": be.tweets.CountTweets(cmd.Context(), query)})
			},
		},
	)
	return root
}

func write(w io.Writer, format string, v any) error {
	if format == "yaml" {
		// Round trip through JSON so yaml keys follow the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trendpulse/internal/app"
	"trendpulse/internal/bot"
	"trendpulse/internal/config"
	"trendpulse/internal/handler"
	"trendpulse/internal/job"
	"trendpulse/internal/metrics"
	"trendpulse/pkg/logging"
	"trendpulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	tele "gopkg.in/telebot.v3"

	_ "trendpulse/docs"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initLoggingFunc      = logging.Init
	initTracerFunc       = tracing.InitTracer
	newMetricsFunc       = metrics.New
	buildAppFunc         = app.Build
	startRefreshFunc     = func(j *job.RefreshJob, ctx context.Context) { go j.Start(ctx) }
	startScannerFunc     = func(j *job.ScannerJob, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc = func(token string, feed bot.Feed) *tele.Bot {
		return bot.StartTelegramBot(token, feed)
	}
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.New
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           trendpulse API
// @version         1.0
// @description     Crypto trend aggregation feeds with last-known-good fallback.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  APIKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	initLoggingFunc(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "trendpulse",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	rec := newMetricsFunc()
	a := buildAppFunc(ctx, cfg, tracer, rec)
	defer a.Close()

	// Background writers of the durable cache (stopped by ctx cancel)
	startRefreshFunc(a.Refresh, ctx)
	if cfg.ScannerEnabled {
		startScannerFunc(a.Scanner, ctx)
	} else {
		log.Info().Msg("SCANNER_ENABLED not set, background scanner disabled")
	}

	if b := startTelegramBotFunc(cfg.TelegramBotToken, a.Feed); b != nil {
		defer b.Stop()
	}

	h := newHandlerFunc(tracer, a.Feed)
	h.SetTweetCounter(a.Twitter)
	h.SetScanRunner(a.ScanRunner())
	h.SetMetricsHandler(rec.Handler())

	r := newRouterFunc()
	r.Use(gin.Recovery(), handler.RequestLogger(), otelgin.Middleware("trendpulse"))

	h.RegisterRoutes(r, cfg.HTTPAPIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("cache", a.Cache.Backend()).Msg("http server listening")
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}

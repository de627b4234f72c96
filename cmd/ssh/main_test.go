package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"trendpulse/internal/app"
	"trendpulse/internal/config"
	"trendpulse/internal/metrics"
	"trendpulse/pkg/tracing"

	"github.com/charmbracelet/ssh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

func TestMainBootstrap(t *testing.T) {
	restore := stubSSHDeps(t)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubSSHDeps(t *testing.T) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitLogging := initLoggingFunc
	origInitTracer := initTracerFunc
	origBuildApp := buildAppFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			CacheBackend:   config.CacheMemory,
			SSHPort:        2222,
			SSHHostKeyPath: ".ssh/test_key",
		}
	}
	initLoggingFunc = func(string, bool) zerolog.Level { return zerolog.Disabled }
	initTracerFunc = func(ctx context.Context, _ tracing.Config) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	buildAppFunc = func(ctx context.Context, cfg *config.Config, tracer trace.Tracer, _ *metrics.Recorder) *app.App {
		return app.Build(ctx, cfg, tracer, metrics.NewWithRegistry(prometheus.NewRegistry()))
	}
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initLoggingFunc = origInitLogging
		initTracerFunc = origInitTracer
		buildAppFunc = origBuildApp
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}

func newKey(t *testing.T) gossh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)
	return key
}

func TestKeyAuthorizer(t *testing.T) {
	allowedKey := newKey(t)
	otherKey := newKey(t)

	auth := keyAuthorizer([]string{gossh.FingerprintSHA256(allowedKey)})
	assert.True(t, auth(nil, allowedKey))
	assert.False(t, auth(nil, otherKey))

	open := keyAuthorizer(nil)
	assert.True(t, open(nil, otherKey))
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	CacheFile     = "file"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
	CacheMemory   = "memory"
)

type Config struct {
	Port       int
	LogLevel   string
	LogPretty  bool
	HTTPAPIKey string

	TracingEnabled bool
	OTLPEndpoint   string

	CoinGeckoAPIKey    string
	TwitterBearerToken string
	OpenAIAPIKey       string
	OpenAIModel        string
	TelegramBotToken   string

	CacheBackend string
	DataDir      string
	RedisURL     string
	DatabaseURL  string

	RefreshPollSecs     int
	ScannerEnabled      bool
	ScannerIntervalMins int
	AlphaEnrichLimit    int
	AlphaEnrichDelayMs  int
	NewsTimezone        string

	KeywordsFile string
	Keywords     Keywords

	SSHPort             int
	SSHHostKeyPath      string
	SSHAllowedKeyHashes []string

	MCPTransport          string
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
}

// Keywords overrides the built-in keyword lists. Empty lists keep the defaults.
type Keywords struct {
	CryptoAllowList []string `yaml:"crypto_allow_list"`
	SocialHashtags  []string `yaml:"social_hashtags"`
	NewsInterest    []string `yaml:"news_interest"`
	NewsSocial      []string `yaml:"news_social"`
}

func Load() *Config {
	cfg := &Config{
		HTTPAPIKey:         strings.TrimSpace(os.Getenv("HTTP_API_KEY")),
		OTLPEndpoint:       strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		CoinGeckoAPIKey:    strings.TrimSpace(os.Getenv("COINGECKO_API_KEY")),
		TwitterBearerToken: strings.TrimSpace(os.Getenv("TWITTER_BEARER_TOKEN")),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		TelegramBotToken:   strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		KeywordsFile:       strings.TrimSpace(os.Getenv("KEYWORDS_FILE")),
		MCPAuthToken:       strings.TrimSpace(os.Getenv("MCP_AUTH_TOKEN")),
	}

	cfg.Port = intEnv("PORT", 8080)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogPretty = strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_PRETTY")), "true")
	cfg.TracingEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "false")

	if cfg.TwitterBearerToken == "" {
		log.Warn().Msg("TWITTER_BEARER_TOKEN not set, social mentions disabled")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set, tweet sentiment uses the keyword lexicon")
	}
	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.TelegramBotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set")
	}

	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(os.Getenv("CACHE_BACKEND")))
	switch cfg.CacheBackend {
	case "":
		cfg.CacheBackend = CacheFile
	case CacheFile, CacheRedis, CachePostgres, CacheMemory:
	default:
		log.Warn().Str("value", cfg.CacheBackend).Msg("unsupported CACHE_BACKEND, defaulting to file")
		cfg.CacheBackend = CacheFile
	}
	cfg.DataDir = strings.TrimSpace(os.Getenv("DATA_DIR"))
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.CacheBackend == CacheRedis && cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.CacheBackend == CachePostgres && cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, postgres cache will fail to start")
	}

	cfg.RefreshPollSecs = intEnv("REFRESH_POLL_SECS", 300)
	cfg.ScannerEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("SCANNER_ENABLED")), "true")
	cfg.ScannerIntervalMins = intEnv("SCANNER_INTERVAL_MINS", 60)
	cfg.AlphaEnrichLimit = intEnv("ALPHA_ENRICH_LIMIT", 15)
	cfg.AlphaEnrichDelayMs = intEnv("ALPHA_ENRICH_DELAY_MS", 2200)

	cfg.NewsTimezone = strings.TrimSpace(os.Getenv("NEWS_TIMEZONE"))
	if cfg.NewsTimezone == "" {
		cfg.NewsTimezone = "UTC"
	}

	if cfg.KeywordsFile != "" {
		kw, err := LoadKeywords(cfg.KeywordsFile)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.KeywordsFile).Msg("ignoring keywords file")
		} else {
			cfg.Keywords = kw
		}
	}

	cfg.SSHPort = intEnv("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/trendpulse_ed25519"
	}
	cfg.SSHAllowedKeyHashes = splitList(os.Getenv("SSH_ALLOWED_FINGERPRINTS"))

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warn().Str("value", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT, defaulting to stdio")
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = intEnv("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = intEnv("MCP_REQUEST_TIMEOUT_SECS", 60)

	return cfg
}

// LoadKeywords reads a YAML keyword overlay.
func LoadKeywords(path string) (Keywords, error) {
	var kw Keywords
	data, err := os.ReadFile(path)
	if err != nil {
		return kw, fmt.Errorf("read keywords: %w", err)
	}
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return kw, fmt.Errorf("parse keywords: %w", err)
	}
	return kw, nil
}

func intEnv(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("invalid integer, using default")
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

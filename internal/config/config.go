package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	SiteURL string // public site base URL, used in emails and attribution

	// Content sources
	PostsDir        string // markdown posts root
	ArchiveDir      string // archived posts directory
	EnableMarkdown  bool
	EnableRemote    bool
	EnableArchived  bool

	// Newsletter platform (remote feed + subscriptions)
	BeehiivAPIBase       string
	BeehiivAPIKey        string // required when EnableRemote
	BeehiivPublicationID string // required when EnableRemote

	// Email delivery
	ResendAPIBase    string
	ResendAPIKey     string // empty => newsletter sending disabled
	ResendAudienceID string
	FromName         string
	FromEmail        string
	NewsletterTopics map[string]string // topic name -> upstream topic id

	// Currency conversion proxy
	ExchangeAPIBase  string
	ExchangeAPIKey   string // empty => endpoint replies 503
	ExchangeBase     string // source currency, ex: SGD
	ExchangeCacheTTL time.Duration

	// Waitlist form forwarding
	FormsEndpoint string // upstream form collector URL, empty => submissions rejected
	FormName      string

	// Redis (sent flags, rate cache, pledge counter)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDialTimeout    time.Duration
	RedisReadTimeout    time.Duration
	RedisWriteTimeout   time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration

	// Access restrictions
	AllowedHosts []string // optional, restrict Host headers
	AdminCIDRs   []string // IPs/CIDRs allowed on admin newsletter endpoints
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// Load reads configuration from the environment. Missing required values
// panic: broken credentials are a deployment error and the only failure
// the process refuses to start over.
func Load() *Config {
	cfg := &Config{
		ListenPort:      getenv("RAGSITE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("RAGSITE_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("RAGSITE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("RAGSITE_PRETTY_LOG", false),

		SiteURL: getenv("RAGSITE_SITE_URL", "https://ragtechdev.com"),

		PostsDir:       getenv("RAGSITE_POSTS_DIR", "data/posts"),
		ArchiveDir:     getenv("RAGSITE_ARCHIVE_DIR", "data/archived-posts"),
		EnableMarkdown: mustBool("RAGSITE_SOURCE_MARKDOWN", true),
		EnableRemote:   mustBool("RAGSITE_SOURCE_REMOTE", true),
		EnableArchived: mustBool("RAGSITE_SOURCE_ARCHIVED", true),

		BeehiivAPIBase: getenv("BEEHIIV_API_BASE", "https://api.beehiiv.com/v2"),
		BeehiivAPIKey:  getenv("BEEHIIV_API_KEY", ""),
		BeehiivPublicationID: getenv("BEEHIIV_PUBLICATION_ID", ""),

		ResendAPIBase:    getenv("RESEND_API_BASE", "https://api.resend.com"),
		ResendAPIKey:     getenv("RESEND_API_KEY", ""),
		ResendAudienceID: getenv("RESEND_GENERAL_SEGMENT_ID", ""),
		FromName:         getenv("RAGSITE_FROM_NAME", "ragTech"),
		FromEmail:        getenv("RAGSITE_FROM_EMAIL", "newsletter@ragtechdev.com"),
		NewsletterTopics: parseTopicMap(getenv("RESEND_TOPIC_IDS", "")),

		ExchangeAPIBase:  getenv("EXCHANGE_RATE_API_BASE", "http://api.exchangerate.host"),
		ExchangeAPIKey:   getenv("EXCHANGE_RATE_API_KEY", ""),
		ExchangeBase:     getenv("RAGSITE_EXCHANGE_BASE", "SGD"),
		ExchangeCacheTTL: mustDuration("RAGSITE_EXCHANGE_CACHE_TTL", time.Hour),

		FormsEndpoint: getenv("RAGSITE_FORMS_ENDPOINT", ""),
		FormName:      getenv("RAGSITE_FORM_NAME", "techie-taboo-waitlist"),

		RedisAddr:           requireEnv("RAGSITE_REDIS_ADDR"),
		RedisUser:           getenv("RAGSITE_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("RAGSITE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("RAGSITE_REDIS_DB", 0),
		RedisDialTimeout:    mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisReadTimeout:    mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWriteTimeout:   mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),

		AllowedHosts: splitAndTrim(getenv("RAGSITE_ALLOWED_HOSTS", "")),
		AdminCIDRs:   splitAndTrim(getenv("RAGSITE_ADMIN_CIDRS", "")),
		TrustProxy:   mustBool("RAGSITE_TRUST_PROXY", true),
	}

	if cfg.EnableRemote {
		if cfg.BeehiivAPIKey == "" {
			panic("FATAL: BEEHIIV_API_KEY is required when the remote source is enabled")
		}
		if cfg.BeehiivPublicationID == "" {
			panic("FATAL: BEEHIIV_PUBLICATION_ID is required when the remote source is enabled")
		}
	}

	return cfg
}

// helpers

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("FATAL: required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.Trim(strings.TrimSpace(part), `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// parseTopicMap parses "ragTech=top_abc,FutureNet=top_def" into a topic
// name -> id map. Malformed entries are dropped.
func parseTopicMap(s string) map[string]string {
	topics := make(map[string]string)
	for _, pair := range splitAndTrim(s) {
		name, id, ok := strings.Cut(pair, "=")
		if !ok || name == "" || id == "" {
			continue
		}
		topics[strings.TrimSpace(name)] = strings.TrimSpace(id)
	}
	return topics
}

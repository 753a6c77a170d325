package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/redis/go-redis/v9"
)

// ConnectOptions controls how the client is built and how long we keep
// retrying the initial ping before giving up.
type ConnectOptions struct {
	Addr           string
	Username       string
	Password       string
	DB             int
	PoolSize       int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PingTimeout    time.Duration
	ConnectTimeout time.Duration
	RetryBase      time.Duration
	RetryMax       time.Duration
}

func (o *ConnectOptions) defaults() {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 3 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 5 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 30 * time.Second
	}
	if o.RetryBase <= 0 {
		o.RetryBase = 500 * time.Millisecond
	}
	if o.RetryMax <= 0 {
		o.RetryMax = 5 * time.Second
	}
}

// New builds a go-redis client and pings it until it answers or the
// connect timeout elapses. The returned client is ready for use.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	opts.defaults()

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	if err := connectWithRetry(ctx, client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info("redis connected", logger.String("addr", opts.Addr), logger.Int("db", opts.DB))
	return client, nil
}

func connectWithRetry(ctx context.Context, client *redis.Client, opts ConnectOptions, log logger.Logger) error {
	deadline := time.Now().Add(opts.ConnectTimeout)
	backoff := opts.RetryBase

	var lastErr error
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("redis unreachable after %s: %w", opts.ConnectTimeout, lastErr)
		}

		wait := backoff
		if wait > remaining {
			wait = remaining
		}
		log.Warn("redis ping failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait),
			logger.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff *= 2
		if backoff > opts.RetryMax {
			backoff = opts.RetryMax
		}
	}
}

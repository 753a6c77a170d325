package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store handles Redis operations for the site's persisted state.
type Store struct {
	client *redis.Client
}

// NewStore creates a Redis store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Ping checks connectivity, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// ─── Newsletter sent flags ───
//
// Sent-ness lives here instead of in the post's frontmatter so the send
// path never rewrites source files. Keys have no TTL: a sent newsletter
// stays sent.

// MarkSent records that a post's newsletter went out.
func (s *Store) MarkSent(ctx context.Context, slug string) error {
	value := time.Now().UTC().Format(time.RFC3339)
	if err := s.client.Set(ctx, SentKey(slug), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to mark newsletter sent: %w", err)
	}
	return nil
}

// IsSent reports whether a post's newsletter was already dispatched.
func (s *Store) IsSent(ctx context.Context, slug string) (bool, error) {
	_, err := s.client.Get(ctx, SentKey(slug)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read sent flag: %w", err)
	}
	return true, nil
}

// SentAt returns when a post's newsletter was dispatched, zero when it
// never was.
func (s *Store) SentAt(ctx context.Context, slug string) (time.Time, error) {
	raw, err := s.client.Get(ctx, SentKey(slug)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to read sent flag: %w", err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed sent timestamp %q: %w", raw, err)
	}
	return t, nil
}

// ─── Exchange rate cache ───

// CacheRate stores a conversion rate for a target currency with a TTL.
func (s *Store) CacheRate(ctx context.Context, target string, rate float64, ttl time.Duration) error {
	key := RateKey(strings.ToUpper(target))
	if err := s.client.Set(ctx, key, strconv.FormatFloat(rate, 'f', -1, 64), ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache rate: %w", err)
	}
	return nil
}

// GetCachedRate retrieves a cached rate. A miss returns ok=false, nil.
func (s *Store) GetCachedRate(ctx context.Context, target string) (rate float64, ok bool, err error) {
	raw, err := s.client.Get(ctx, RateKey(strings.ToUpper(target))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read cached rate: %w", err)
	}
	rate, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed cached rate %q: %w", raw, err)
	}
	return rate, true, nil
}

// ─── Waitlist pledge counter ───

// IncrPledges bumps the waitlist counter and returns the new total.
func (s *Store) IncrPledges(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, KeyPledges).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment pledge counter: %w", err)
	}
	return n, nil
}

// Pledges returns the current waitlist counter, zero when never set.
func (s *Store) Pledges(ctx context.Context) (int64, error) {
	raw, err := s.client.Get(ctx, KeyPledges).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read pledge counter: %w", err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed pledge counter %q: %w", raw, err)
	}
	return n, nil
}

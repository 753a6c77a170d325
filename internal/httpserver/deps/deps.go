package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ragtech-dev/ragsite/internal/exchange"
	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/newsletter"
	"github.com/ragtech-dev/ragsite/internal/posts"
	"github.com/ragtech-dev/ragsite/internal/scheduler"
	"github.com/ragtech-dev/ragsite/internal/sources/beehiiv"
	"github.com/ragtech-dev/ragsite/internal/waitlist"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to access the server
	AdminCIDRs   []string // IPs allowed on the admin newsletter endpoints
	TrustProxy   bool     // true when running behind a trusted reverse proxy

	RedisClient *redis.Client // nil tolerated, readiness reports it

	Posts      *posts.Service     // aggregated blog feed
	Sources    posts.SourceConfig // which sources the feed draws from
	Subscriber *beehiiv.Client    // subscription intake, nil when remote disabled
	Newsletter *newsletter.Service
	Worker     *scheduler.NewsletterWorker // nil when sending disabled
	Exchange   *exchange.Client            // nil when no provider key configured
	Waitlist   *waitlist.Service
}

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ragtech-dev/ragsite/internal/config"
	"github.com/ragtech-dev/ragsite/internal/exchange"
	"github.com/ragtech-dev/ragsite/internal/httpserver"
	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/newsletter"
	"github.com/ragtech-dev/ragsite/internal/posts"
	"github.com/ragtech-dev/ragsite/internal/redis"
	"github.com/ragtech-dev/ragsite/internal/scheduler"
	"github.com/ragtech-dev/ragsite/internal/sources/archive"
	"github.com/ragtech-dev/ragsite/internal/sources/beehiiv"
	"github.com/ragtech-dev/ragsite/internal/sources/markdown"
	redisstore "github.com/ragtech-dev/ragsite/internal/store/redis"
	"github.com/ragtech-dev/ragsite/internal/version"
	"github.com/ragtech-dev/ragsite/internal/waitlist"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	worker      *scheduler.NewsletterWorker
}

func New() *App {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.PrettyLog)

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(context.Background(), redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		Username:       cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		PoolSize:       cfg.RedisPoolSize,
		DialTimeout:    cfg.RedisDialTimeout,
		ReadTimeout:    cfg.RedisReadTimeout,
		WriteTimeout:   cfg.RedisWriteTimeout,
		PingTimeout:    cfg.RedisPingTimeout,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryBase:      cfg.RedisRetryInterval,
		RetryMax:       cfg.RedisMaxWait,
	}, log)
	if err != nil {
		log.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}

	store := redisstore.NewStore(redisClient)

	// Content sources
	mdLoader := markdown.NewLoader(cfg.PostsDir, log)
	arLoader := archive.NewLoader(cfg.ArchiveDir, log)

	var remote *beehiiv.Client
	if cfg.EnableRemote {
		remote = beehiiv.NewClient(beehiiv.Options{
			BaseURL:       cfg.BeehiivAPIBase,
			APIKey:        cfg.BeehiivAPIKey,
			PublicationID: cfg.BeehiivPublicationID,
			UTMSource:     cfg.SiteURL,
		}, log)
	}

	feed := posts.NewService(mdLoader, remote, arLoader, log)
	sources := posts.SourceConfig{
		Markdown: cfg.EnableMarkdown,
		Remote:   cfg.EnableRemote,
		Archived: cfg.EnableArchived,
	}

	// Newsletter delivery is optional, the blog works without it.
	var sender *newsletter.Service
	var worker *scheduler.NewsletterWorker
	if cfg.ResendAPIKey != "" {
		mailer := newsletter.NewResendClient(newsletter.ResendOptions{
			BaseURL:    cfg.ResendAPIBase,
			APIKey:     cfg.ResendAPIKey,
			AudienceID: cfg.ResendAudienceID,
		}, log)
		sender = newsletter.NewService(newsletter.ServiceOptions{
			Posts:    mdLoader,
			Mailer:   mailer,
			Sent:     store,
			Topics:   cfg.NewsletterTopics,
			FromName: cfg.FromName,
			From:     cfg.FromEmail,
			SiteURL:  cfg.SiteURL,
		}, log)
		worker = scheduler.NewNewsletterWorker(sender, log, 0)
	} else {
		log.Info("no email provider key configured, newsletter sending disabled")
	}

	var rates *exchange.Client
	if cfg.ExchangeAPIKey != "" {
		rates = exchange.New(exchange.Options{
			BaseURL:  cfg.ExchangeAPIBase,
			APIKey:   cfg.ExchangeAPIKey,
			Source:   cfg.ExchangeBase,
			Cache:    store,
			CacheTTL: cfg.ExchangeCacheTTL,
		}, log)
	}

	pledges := waitlist.New(waitlist.Options{
		Endpoint: cfg.FormsEndpoint,
		FormName: cfg.FormName,
		Store:    store,
	}, log)

	d := deps.Deps{
		Logger:       log,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AdminCIDRs:   cfg.AdminCIDRs,
		TrustProxy:   cfg.TrustProxy,
		RedisClient:  redisClient,
		Posts:        feed,
		Sources:      sources,
		Subscriber:   remote,
		Newsletter:   sender,
		Worker:       worker,
		Exchange:     rates,
		Waitlist:     pledges,
	}

	server := httpserver.New(cfg, log, d)

	return &App{
		cfg:         cfg,
		logger:      log,
		server:      server,
		redisClient: redisClient,
		worker:      worker,
	}
}

func (a *App) Run() error {
	a.logger.Infof("Starting ragsite %s (commit=%s, built=%s, go=%s) on %s",
		version.Version, version.Commit, version.BuildDate, version.GoVersion, a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.worker != nil {
		a.worker.Start(ctx)
		a.logger.Info("newsletter worker started")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.worker != nil {
		a.worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Errorf("HTTP shutdown error: %v", err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Errorf("Redis close error: %v", err)
	}

	_ = a.logger.Sync()
	return nil
}

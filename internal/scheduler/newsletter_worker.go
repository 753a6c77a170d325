package scheduler

import (
	"context"
	"time"

	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/newsletter"
)

// NewsletterWorker serializes newsletter batch sends through a single
// goroutine. Sends mutate the sent-flag store, so funneling every run
// through one worker keeps the write path single-writer no matter how
// many HTTP requests ask for one.
type NewsletterWorker struct {
	service  *newsletter.Service
	logger   logger.Logger
	interval time.Duration
	trigger  chan struct{}
	stopCh   chan struct{}
}

// NewNewsletterWorker creates a worker. interval <= 0 disables periodic
// runs, leaving only manual triggers.
func NewNewsletterWorker(svc *newsletter.Service, log logger.Logger, interval time.Duration) *NewsletterWorker {
	return &NewsletterWorker{
		service:  svc,
		logger:   log,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Trigger requests a batch run. Returns false when a run is already
// queued, which callers can treat as success.
func (w *NewsletterWorker) Trigger() bool {
	select {
	case w.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Start launches the worker goroutine.
func (w *NewsletterWorker) Start(ctx context.Context) {
	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		tick = ticker.C
		go func() {
			<-w.stopCh
			ticker.Stop()
		}()
	}

	go func() {
		for {
			select {
			case <-w.trigger:
				w.run(ctx)
			case <-tick:
				w.run(ctx)
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the worker.
func (w *NewsletterWorker) Stop() {
	close(w.stopCh)
}

func (w *NewsletterWorker) run(ctx context.Context) {
	outcomes, err := w.service.SendPending(ctx)
	if err != nil {
		w.logger.Error("newsletter batch run failed", logger.Error(err))
		return
	}

	sent := 0
	for _, o := range outcomes {
		if o.Sent {
			sent++
		}
	}
	w.logger.Info("newsletter batch run finished",
		logger.Int("pending", len(outcomes)),
		logger.Int("sent", sent),
	)
}

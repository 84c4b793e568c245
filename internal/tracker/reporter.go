package tracker

import (
	"context"
	"sync"
	"time"

	"agency-cms/internal/shared/logger"
)

// DefaultInterval is the time between two reports
const DefaultInterval = 30 * time.Second

// Reporter snapshots the client stores and sends them once on Start and then
// on every tick until Stop. Delivery is at most once: a failed send is
// logged and never retried, and sends run detached so they may overlap.
type Reporter struct {
	collector   *Collector
	identity    *IdentityResolver
	sender      Sender
	interval    time.Duration
	sendTimeout time.Duration
	logger      logger.Logger
	now         func() time.Time

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	inflight sync.WaitGroup
}

// ReporterOption configures a Reporter
type ReporterOption func(*Reporter)

// WithInterval overrides DefaultInterval
func WithInterval(d time.Duration) ReporterOption {
	return func(r *Reporter) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithSendTimeout bounds each detached send
func WithSendTimeout(d time.Duration) ReporterOption {
	return func(r *Reporter) {
		if d > 0 {
			r.sendTimeout = d
		}
	}
}

// WithReporterClock replaces time.Now for report timestamps
func WithReporterClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) { r.now = now }
}

// NewReporter creates a stopped reporter
func NewReporter(collector *Collector, identity *IdentityResolver, sender Sender, log logger.Logger, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		collector:   collector,
		identity:    identity,
		sender:      sender,
		interval:    DefaultInterval,
		sendTimeout: 10 * time.Second,
		logger:      log.WithComponent("tracker.reporter"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start fires one report immediately and schedules the following ones.
// Calling Start on a running reporter does nothing.
func (r *Reporter) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	r.fire(ctx)
	go r.loop(ctx, r.done)
}

func (r *Reporter) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fire(ctx)
		}
	}
}

// fire takes the snapshot and identifier now and hands the send to a
// goroutine that outlives Stop.
func (r *Reporter) fire(ctx context.Context) {
	report := Report{Timestamp: r.now().UTC(), StorageData: r.collector.Collect(ctx)}
	visitorID := r.identity.Resolve(ctx)

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), r.sendTimeout)
		defer cancel()

		if err := r.sender.Send(sendCtx, visitorID, report); err != nil {
			r.logger.WithFields(map[string]interface{}{"visitor_id": visitorID}).Warnf("Storage report failed: %v", err)
			return
		}
		r.logger.Debugf("Storage report sent for %s", visitorID)
	}()
}

// Stop cancels the schedule. Sends already started run to completion;
// Wait blocks on them.
func (r *Reporter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until every started send has finished
func (r *Reporter) Wait() {
	r.inflight.Wait()
}

package updater

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"spoolsync/core/engine"
	"spoolsync/core/spoolman"

	"go.uber.org/zap"
)

// State is the update loop's lifecycle state.
type State int32

const (
	// StateIdle means the loop has not started.
	StateIdle State = iota
	// StateSyncing means a sync cycle is in progress.
	StateSyncing
	// StateWaiting means the loop is waiting for notifications or the
	// debounce timer.
	StateWaiting
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateWaiting:
		return "waiting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds configuration for the update loop.
type Config struct {
	// Continuous keeps the loop running, re-syncing on inventory change
	// notifications. When false a single sync is performed.
	Continuous bool `mapstructure:"continuous" default:"false"`
	// DebounceMillis is the window within which bursts of notifications
	// coalesce into a single sync.
	DebounceMillis int `mapstructure:"debounce_millis" default:"500"`
	// InitialRetrySeconds is the delay between retries of the initial
	// load in continuous mode.
	InitialRetrySeconds int `mapstructure:"initial_retry_seconds" default:"5"`
}

// Syncer runs one reconciliation cycle. Satisfied by *engine.Engine.
type Syncer interface {
	Sync(ctx context.Context) (*engine.SyncSummary, error)
}

// Subscription is a live inventory push channel.
type Subscription interface {
	// Done is closed when the subscription ends for any reason.
	Done() <-chan struct{}
	// Err reports why the subscription ended, nil on clean shutdown.
	Err() error
	// Close tears the subscription down.
	Close() error
}

// Subscriber opens the inventory push channel.
type Subscriber interface {
	Subscribe(ctx context.Context, onEvent func(spoolman.ChangeNotification)) (Subscription, error)
}

// SpoolmanSubscriber adapts a Spoolman client to the Subscriber
// interface.
func SpoolmanSubscriber(c *spoolman.Client) Subscriber {
	return spoolmanSubscriber{c}
}

type spoolmanSubscriber struct {
	c *spoolman.Client
}

func (s spoolmanSubscriber) Subscribe(ctx context.Context, onEvent func(spoolman.ChangeNotification)) (Subscription, error) {
	return s.c.Subscribe(ctx, onEvent)
}

// Loop drives the reconciliation engine, either once or continuously on
// push notifications. Notifications are buffered on a channel and
// consumed by the single loop goroutine; the subscription callback never
// touches engine state directly.
type Loop struct {
	cfg Config
	eng Syncer
	sub Subscriber
	log *zap.Logger

	state atomic.Int32

	mu        sync.Mutex
	last      *engine.SyncSummary
	onSummary func(*engine.SyncSummary)
}

// New creates an update loop. sub may be nil when only RunOnce is used.
func New(cfg Config, eng Syncer, sub Subscriber, log *zap.Logger) *Loop {
	return &Loop{cfg: cfg, eng: eng, sub: sub, log: log}
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State { return State(l.state.Load()) }

// LastSummary returns the most recent sync summary, nil before the first
// completed cycle.
func (l *Loop) LastSummary() *engine.SyncSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// OnSummary registers an observer invoked after every completed sync.
// Must be called before Run.
func (l *Loop) OnSummary(fn func(*engine.SyncSummary)) { l.onSummary = fn }

func (l *Loop) setState(s State) { l.state.Store(int32(s)) }

func (l *Loop) publish(summary *engine.SyncSummary) {
	l.mu.Lock()
	l.last = summary
	l.mu.Unlock()
	if l.onSummary != nil {
		l.onSummary(summary)
	}
}

// RunOnce performs a single sync and stops.
func (l *Loop) RunOnce(ctx context.Context) (*engine.SyncSummary, error) {
	l.setState(StateSyncing)
	defer l.setState(StateStopped)

	summary, err := l.eng.Sync(ctx)
	if err != nil {
		return nil, err
	}
	l.publish(summary)
	return summary, nil
}

// Run performs the initial sync (retrying until it succeeds, since push
// payloads alone cannot seed the engine), then subscribes to change
// notifications and re-syncs on each burst. Bursts arriving within the
// debounce window coalesce into a single sync. Runs until ctx is
// cancelled or the subscription permanently fails; an in-progress sync
// finishes its writes before the loop observes cancellation.
func (l *Loop) Run(ctx context.Context) error {
	defer l.setState(StateStopped)

	if err := l.initialSync(ctx); err != nil {
		return err
	}

	events := make(chan spoolman.ChangeNotification, 64)
	sub, err := l.sub.Subscribe(ctx, func(n spoolman.ChangeNotification) {
		select {
		case events <- n:
		default:
			// A full buffer means a sync is already pending; the
			// coalescing re-sync will pick the change up anyway.
		}
	})
	if err != nil {
		return err
	}
	defer sub.Close()

	l.log.Info("Waiting for inventory updates")
	l.setState(StateWaiting)

	debounce := time.Duration(l.cfg.DebounceMillis) * time.Millisecond
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case <-sub.Done():
			if timer != nil {
				timer.Stop()
			}
			if err := sub.Err(); err != nil {
				l.log.Error("Subscription failed permanently", zap.Error(err))
				return err
			}
			return nil

		case n := <-events:
			l.log.Debug("Inventory change",
				zap.String("resource", n.Resource),
				zap.String("type", n.Type),
				zap.Int("id", n.ID),
			)
			if timerC == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			}

		case <-timerC:
			timer = nil
			timerC = nil

			l.setState(StateSyncing)
			summary, err := l.eng.Sync(ctx)
			l.setState(StateWaiting)
			if err != nil {
				// Fetch failed; nothing was written. Stay alive and
				// re-sync on the next notification.
				l.log.Error("Sync failed", zap.Error(err))
				continue
			}
			l.publish(summary)
		}
	}
}

// initialSync retries the first full load until it succeeds or ctx is
// cancelled.
func (l *Loop) initialSync(ctx context.Context) error {
	retry := time.Duration(l.cfg.InitialRetrySeconds) * time.Second
	if retry <= 0 {
		retry = 5 * time.Second
	}

	for {
		l.setState(StateSyncing)
		summary, err := l.eng.Sync(ctx)
		if err == nil {
			l.publish(summary)
			l.setState(StateWaiting)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.log.Error("Initial load failed, retrying",
			zap.Duration("retry_in", retry),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"novagrab/internal/clock"
)

const defaultPollInterval = 60 * time.Second

// ErrPollerStopping is returned by Start while the loop of an earlier Stop
// has not exited yet.
var ErrPollerStopping = errors.New("poller is still stopping")

// Poller drives Tracker.PollOnce on a fixed interval.
type Poller struct {
	tracker *Tracker
	cfg     settingsProvider
	clock   clock.Clock

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{} // closed when the loop exits; nil when idle
	stopping bool
	polls    chan struct{}
}

func NewPoller(tracker *Tracker, cfg settingsProvider) *Poller {
	return &Poller{tracker: tracker, cfg: cfg, clock: clock.Real(), polls: make(chan struct{}, 1)}
}

// SetClock replaces the clock the poll ticker comes from. Call before Start.
func (p *Poller) SetClock(c clock.Clock) {
	p.clock = c
}

// Polls returns a channel receiving a value after every completed poll.
// Sends never block; a slow reader misses notifications.
func (p *Poller) Polls() <-chan struct{} {
	return p.polls
}

// Start polls once right away and then on every tick until Stop is called
// or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		select {
		case <-p.done:
			p.done = nil
		default:
			if p.stopping {
				return ErrPollerStopping
			}
			return nil
		}
	}

	interval := defaultPollInterval
	if settings, err := p.cfg.Load(); err != nil {
		log.Printf("[tracking] failed to load settings, polling every %s: %v", interval, err)
	} else if s := time.Duration(settings.Tracking.PollIntervalSeconds) * time.Second; s >= time.Second {
		interval = s
	}

	var loopCtx context.Context
	loopCtx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.stopping = false
	ticker := p.clock.NewTicker(interval)

	go p.loop(loopCtx, ticker, p.done)

	log.Printf("[tracking] poller started, interval %s", interval)
	return nil
}

// Stop ends the loop and waits for an in-flight poll to finish. When ctx
// expires first the loop keeps winding down in the background, Stop returns
// the context error and Start refuses to run until the loop has exited.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.done == nil {
		p.mu.Unlock()
		return nil
	}
	p.cancel()
	p.stopping = true
	done := p.done
	p.mu.Unlock()

	select {
	case <-done:
		p.mu.Lock()
		if p.done == done {
			p.done = nil
			p.stopping = false
		}
		p.mu.Unlock()
		log.Println("[tracking] poller stopped")
		return nil
	case <-ctx.Done():
		log.Println("[tracking] poller stop timed out, a poll is still running")
		return fmt.Errorf("stop poller: %w", ctx.Err())
	}
}

func (p *Poller) loop(ctx context.Context, ticker clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if err := p.tracker.PollOnce(ctx); err != nil && ctx.Err() == nil {
		log.Printf("[tracking] poll failed: %v", err)
	}
	select {
	case p.polls <- struct{}{}:
	default:
	}
}

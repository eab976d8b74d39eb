package jobs

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Schedule describes a fixed-interval refresh with optional random jitter. Consumers of a polled
// resource may observe data that is up to Interval+Jitter old.
type Schedule struct {
	Interval time.Duration
	Jitter   time.Duration
}

// StalenessBound is the longest a poller following s can go without refreshing.
func (s Schedule) StalenessBound() time.Duration {
	return s.Interval + s.Jitter
}

// Next returns the delay before the following tick.
func (s Schedule) Next(r *rand.Rand) time.Duration {
	if s.Jitter <= 0 || r == nil {
		return s.Interval
	}
	return s.Interval + time.Duration(r.Int63n(int64(s.Jitter)+1))
}

// PollFunc is invoked on every tick.
type PollFunc func(ctx context.Context) error

// PollerConfig configures a Poller.
type PollerConfig struct {
	Schedule Schedule
	Logger   *zap.Logger
}

// Poller runs a function on a schedule until stopped.
type Poller struct {
	name     string
	fn       PollFunc
	schedule Schedule
	logger   *zap.Logger
	rnd      *rand.Rand

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewPoller builds a poller. Intervals below one second are raised to one second.
func NewPoller(name string, fn PollFunc, cfg PollerConfig) *Poller {
	if cfg.Schedule.Interval < time.Second {
		cfg.Schedule.Interval = time.Second
	}
	if cfg.Schedule.Jitter < 0 {
		cfg.Schedule.Jitter = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Poller{
		name:     name,
		fn:       fn,
		schedule: cfg.Schedule,
		logger:   cfg.Logger,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start launches the polling goroutine. Safe to call once.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.loop()
	p.started = true
	p.logger.Sugar().Infow("poller started", "poller", p.name, "interval", p.schedule.Interval, "jitter", p.schedule.Jitter)
}

// Stop cancels the poller and waits for the in-flight tick to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.started = false
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Sugar().Infow("poller stopped", "poller", p.name)
}

// Schedule exposes the configured cadence.
func (p *Poller) Schedule() Schedule {
	return p.schedule
}

func (p *Poller) loop() {
	defer p.wg.Done()
	for {
		timer := time.NewTimer(p.schedule.Next(p.rnd))
		select {
		case <-p.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := p.fn(p.ctx); err != nil {
				p.logger.Sugar().Debugw("poll tick failed", "poller", p.name, "error", err)
			}
		}
	}
}

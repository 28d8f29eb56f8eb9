package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// interval is a fixed-delay schedule. cron.Every truncates to whole seconds.
type interval time.Duration

func (i interval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(i))
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
}

// Monitor runs named probes on a cron schedule and keeps the latest results.
type Monitor struct {
	checks   []check
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger

	mu     sync.RWMutex
	status Status
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := 3 * time.Second
	if interval < timeout {
		timeout = interval
	}
	return &Monitor{
		interval: interval,
		timeout:  timeout,
		cron:     cron.New(),
		logger:   logger,
	}
}

// AddCheck registers a probe. It must be called before Start.
func (m *Monitor) AddCheck(name string, fn CheckFunc) {
	if fn == nil {
		return
	}
	m.checks = append(m.checks, check{name: name, fn: fn})
}

// Start runs the probes once and then schedules them.
func (m *Monitor) Start(ctx context.Context) {
	m.Refresh(ctx)

	m.cron.Schedule(interval(m.interval), cron.FuncJob(func() {
		m.Refresh(context.Background())
	}))
	m.cron.Start()
	m.logger.Info("health monitor started", zap.Duration("interval", m.interval), zap.Int("checks", len(m.checks)))
}

// Stop waits for a running probe to finish or ctx to expire.
func (m *Monitor) Stop(ctx context.Context) error {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh runs every probe now and records the results.
func (m *Monitor) Refresh(ctx context.Context) {
	results := make(map[string]CheckResult, len(m.checks))
	for _, c := range m.checks {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := c.fn(checkCtx)
		cancel()

		result := CheckResult{Online: err == nil}
		if err != nil {
			result.Error = err.Error()
			m.logger.Warn("health check failed", zap.String("check", c.name), zap.Error(err))
		}
		results[c.name] = result
	}

	m.mu.Lock()
	m.status = Status{Checks: results, LastCheck: time.Now().UTC()}
	m.mu.Unlock()
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	checks := make(map[string]CheckResult, len(m.status.Checks))
	for name, result := range m.status.Checks {
		checks[name] = result
	}
	return Status{Checks: checks, LastCheck: m.status.LastCheck}
}

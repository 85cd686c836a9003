package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	stackgauge "github.com/embtrace/stackgauge"
	"github.com/embtrace/stackgauge/errors"
)

// DefaultInterval is the sampling period when none is configured.
const DefaultInterval = time.Second

// Sample is one observation of the unused-stack estimate.
type Sample struct {
	When   time.Time
	Unused uint32
	Min    uint32 // lowest estimate seen up to and including this sample
}

// Observer receives samples as they are taken.
type Observer interface {
	OnSample(Sample)
}

// Monitor periodically polls a sampler and tracks the minimum estimate.
type Monitor struct {
	sampler  stackgauge.Sampler
	interval time.Duration
	logger   *zap.Logger

	obsMu     sync.RWMutex
	observers []Observer

	mu      sync.RWMutex
	min     uint32
	last    Sample
	sampled bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the sampling period for Run.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithLogger attaches a zap logger; samples are logged at debug level and
// new lows at info level.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// New builds a monitor over s.
func New(s stackgauge.Sampler, opts ...Option) *Monitor {
	m := &Monitor{
		sampler:  s,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe adds an observer for future samples.
func (m *Monitor) Subscribe(o Observer) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = append(m.observers, o)
}

// Unsubscribe removes an observer.
func (m *Monitor) Unsubscribe(o Observer) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	for i, obs := range m.observers {
		if obs == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

func (m *Monitor) notify(s Sample) {
	m.obsMu.RLock()
	defer m.obsMu.RUnlock()
	for _, o := range m.observers {
		o.OnSample(s)
	}
}

// Sample polls the sampler once, updates the running minimum and notifies
// observers.
func (m *Monitor) Sample() (Sample, error) {
	unused, err := m.sampler.Unused()
	if err != nil {
		m.logger.Error("stack sample failed", zap.Error(err))
		return Sample{}, errors.Wrap(errors.PhaseMonitor, errors.KindMisconfigured, err, "sample")
	}

	m.mu.Lock()
	newLow := !m.sampled || unused < m.min
	if newLow {
		m.min = unused
	}
	s := Sample{When: time.Now(), Unused: unused, Min: m.min}
	m.last = s
	m.sampled = true
	m.mu.Unlock()

	if newLow {
		m.logger.Info("stack high-water mark",
			zap.Uint32("unused", unused),
		)
	} else {
		m.logger.Debug("stack sample",
			zap.Uint32("unused", unused),
			zap.Uint32("min", s.Min),
		)
	}

	m.notify(s)
	return s, nil
}

// Run samples immediately and then on every interval tick until ctx is
// cancelled. It returns ctx.Err() on cancellation or the first sampling
// error.
func (m *Monitor) Run(ctx context.Context) error {
	if _, err := m.Sample(); err != nil {
		return err
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Sample(); err != nil {
				return err
			}
		}
	}
}

// Min returns the lowest unused estimate observed, and whether any sample
// has been taken yet.
func (m *Monitor) Min() (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.min, m.sampled
}

// Last returns the most recent sample.
func (m *Monitor) Last() (Sample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.sampled
}

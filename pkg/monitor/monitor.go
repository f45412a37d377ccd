package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/etesdev/etes/pkg/events"
	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/types"
)

const sampleInterval = 10 * time.Second

// Sampler reads the host memory gauge. The default uses gopsutil; tests
// substitute a deterministic one.
type Sampler func(ctx context.Context) (used, total uint64, err error)

func systemMemory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	return vm.Used, vm.Total, nil
}

// Monitor samples host memory on a fixed cadence, caches the latest
// sample for the initial-state snapshot, and broadcasts each sample as a
// MemoryState event.
type Monitor struct {
	sampler  Sampler
	interval time.Duration
	logger   zerolog.Logger

	mu    sync.RWMutex
	state types.MemoryState
}

// New creates a monitor backed by the host memory gauge.
func New() *Monitor {
	return &Monitor{
		sampler:  systemMemory,
		interval: sampleInterval,
		logger:   log.WithComponent("monitor"),
	}
}

// State returns the latest cached sample. Before the first sample it is
// all zeros.
func (m *Monitor) State() types.MemoryState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Run samples immediately and then every ten seconds until ctx is
// cancelled. A failed sample is logged and skipped.
func (m *Monitor) Run(ctx context.Context, broker *events.Broker) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.sample(ctx, broker)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Monitor) sample(ctx context.Context, broker *events.Broker) {
	used, total, err := m.sampler(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to sample memory")
		return
	}

	m.mu.Lock()
	m.state = types.MemoryState{Used: used, Total: total}
	m.mu.Unlock()

	broker.Publish(events.MemoryState{Used: used, Total: total})
}

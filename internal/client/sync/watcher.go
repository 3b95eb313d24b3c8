package sync

import (
	"context"
	"time"

	"github.com/dmitrijs2005/daybook/internal/logging"
)

const probeTimeout = 3 * time.Second

// Pinger checks backend liveness. Implemented by the remote HTTP client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher probes the backend on an interval and feeds online/offline
// transitions into the coordinator.
type Watcher struct {
	pinger      Pinger
	coordinator *Coordinator
	interval    time.Duration
	logger      logging.Logger
}

func NewWatcher(pinger Pinger, coordinator *Coordinator, interval time.Duration, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{pinger: pinger, coordinator: coordinator, interval: interval, logger: logger}
}

// Run blocks until ctx is done. An immediate probe runs before the first
// tick so startup does not wait a full interval to discover connectivity.
func (w *Watcher) Run(ctx context.Context) {
	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := w.pinger.Ping(probeCtx)
	w.coordinator.SetOnline(ctx, err == nil)
}

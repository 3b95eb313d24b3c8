// Package sync contains the offline-first synchronization core. The
// coordinator presents a single read/write API that is always available
// offline, opportunistically mirrors writes to the remote store, and
// reconciles when connectivity or authentication improves.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/auth"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/remote"
	"github.com/dmitrijs2005/daybook/internal/client/store"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/sethvargo/go-retry"
)

// AuthState is the slice of the auth session the coordinator consumes.
type AuthState interface {
	Current() *auth.Identity
	IsAuthenticated() bool
	Initialize(ctx context.Context) (*auth.Identity, error)
	Subscribe(fn func(*auth.Identity)) func()
}

// Drain backoff: capped exponential with jitter, bounded per drain. Entries
// still failing after the last attempt stay queued for the next connectivity
// event.
const (
	drainBaseDelay  = 500 * time.Millisecond
	drainCapDelay   = 5 * time.Second
	drainJitter     = 250 * time.Millisecond
	drainMaxRetries = 4
)

// Coordinator orchestrates LocalStore and RemoteStore. The local store is the
// durability guarantee: a save is successful once it lands locally, and
// remote failures are queued and retried rather than surfaced.
type Coordinator struct {
	local   store.LocalStore
	remote  remote.RemoteStore
	session AuthState
	logger  logging.Logger

	mu     sync.Mutex
	online bool
	// queue holds entries pending remote upload, keyed by date so a newer
	// save for the same day supersedes an older queued one. In-memory only:
	// the local store remains the durable source of truth.
	queue map[string]models.Entry
	// pendingBulk remembers a bulk-upload trigger (startup on a linked
	// device, or linking) that fired while the remote store was unreachable;
	// the upload runs on the next offline→online transition.
	pendingBulk bool

	unsubscribe func()
}

// NewCoordinator wires the coordinator to its stores and subscribes it to
// identity transitions: moving to a linked identity triggers a one-time bulk
// upload of local history.
func NewCoordinator(local store.LocalStore, rs remote.RemoteStore, session AuthState, logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Coordinator{
		local:   local,
		remote:  rs,
		session: session,
		logger:  logger,
		queue:   make(map[string]models.Entry),
	}
	c.unsubscribe = session.Subscribe(func(id *auth.Identity) {
		if id != nil && !id.Anonymous {
			c.syncLocalToRemote(context.Background())
		}
	})
	return c
}

// Close detaches the coordinator from the auth session.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Start performs startup reconciliation: a device that is already linked
// pushes its local history up once.
func (c *Coordinator) Start(ctx context.Context) {
	if id := c.session.Current(); id != nil && !id.Anonymous {
		c.syncLocalToRemote(ctx)
	}
}

// Online reports the last observed connectivity state.
func (c *Coordinator) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Pending reports how many entries are queued for remote upload.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Coordinator) canRemote() bool {
	c.mu.Lock()
	online := c.online
	c.mu.Unlock()
	return online && c.session.IsAuthenticated()
}

// SetOnline records a connectivity transition. Coming back online retries
// identity resolution if the device still has none, runs a deferred bulk
// upload, and drains a non-empty retry queue.
func (c *Coordinator) SetOnline(ctx context.Context, online bool) {
	c.mu.Lock()
	was := c.online
	c.online = online
	pending := len(c.queue)
	c.mu.Unlock()

	if was == online {
		return
	}
	c.logger.Info(ctx, "connectivity changed", "online", online)

	if !online {
		return
	}

	if c.session.Current() == nil {
		if _, err := c.session.Initialize(ctx); err != nil {
			c.logger.Warn(ctx, "identity resolution retry failed", "err", err)
		}
	}

	c.mu.Lock()
	bulk := c.pendingBulk
	c.pendingBulk = false
	c.mu.Unlock()
	if bulk {
		c.syncLocalToRemote(ctx)
	}

	if pending > 0 {
		c.drainQueue(ctx)
	}
}

// Save writes locally first; that alone decides success. The remote mirror is
// attempted opportunistically and queued on failure, never reported to the
// caller.
func (c *Coordinator) Save(ctx context.Context, entry *models.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	if err := c.local.Save(ctx, entry); err != nil {
		return err
	}

	if !c.canRemote() {
		return nil
	}

	if err := c.remote.Save(ctx, entry); err != nil {
		c.logger.Warn(ctx, "remote save failed, queued for retry", "date", entry.Date, "err", err)
		c.enqueue(entry)
		return nil
	}
	c.dequeue(entry.Date)
	return nil
}

// GetByDate prefers the remote copy when reachable, falling back to local on
// any remote error or miss.
func (c *Coordinator) GetByDate(ctx context.Context, date string) (*models.Entry, error) {
	if c.canRemote() {
		e, err := c.remote.GetByDate(ctx, date)
		if err != nil {
			c.logger.Warn(ctx, "remote read failed, falling back to local", "date", date, "err", err)
		} else if e != nil {
			return e, nil
		}
	}
	return c.local.GetByDate(ctx, date)
}

// GetAll prefers remote; an empty remote result is treated as "not yet
// synced" rather than "genuinely empty" and falls back to local. That
// heuristic cannot tell a brand-new journal from an unsynced one; see the
// repository design notes.
func (c *Coordinator) GetAll(ctx context.Context) ([]models.Entry, error) {
	if c.canRemote() {
		entries, err := c.remote.GetAll(ctx)
		if err != nil {
			c.logger.Warn(ctx, "remote read failed, falling back to local", "err", err)
		} else if len(entries) > 0 {
			return entries, nil
		} else {
			c.logger.Debug(ctx, "remote collection empty, falling back to local")
		}
	}
	return c.local.GetAll(ctx)
}

// Search prefers remote results when reachable, local otherwise.
func (c *Coordinator) Search(ctx context.Context, text string) ([]models.Entry, error) {
	if c.canRemote() {
		entries, err := c.remote.Search(ctx, text)
		if err == nil {
			return entries, nil
		}
		c.logger.Warn(ctx, "remote search failed, falling back to local", "err", err)
	}
	return c.local.Search(ctx, text)
}

// DeleteOlderThan prunes both stores. The local operation is authoritative;
// remote failures are logged and swallowed.
func (c *Coordinator) DeleteOlderThan(ctx context.Context, days int) error {
	if err := c.local.DeleteOlderThan(ctx, days); err != nil {
		return err
	}

	if c.canRemote() {
		if err := c.remote.DeleteOlderThan(ctx, days); err != nil {
			c.logger.Warn(ctx, "remote retention prune failed", "err", err)
		}
	}
	return nil
}

// ClearAll wipes both stores; remote failures are best-effort.
func (c *Coordinator) ClearAll(ctx context.Context) error {
	if err := c.local.ClearAll(ctx); err != nil {
		return err
	}

	if c.canRemote() {
		if err := c.remote.ClearAll(ctx); err != nil {
			c.logger.Warn(ctx, "remote clear failed", "err", err)
		}
	}
	return nil
}

// SetCurrentDate and GetCurrentDate manage the device-local date cursor; the
// cursor never syncs.
func (c *Coordinator) SetCurrentDate(ctx context.Context, t time.Time) error {
	return c.local.SetCurrentDate(ctx, t)
}

func (c *Coordinator) GetCurrentDate(ctx context.Context) (time.Time, error) {
	return c.local.GetCurrentDate(ctx)
}

func (c *Coordinator) enqueue(entry *models.Entry) {
	c.mu.Lock()
	c.queue[entry.Date] = *entry
	c.mu.Unlock()
}

func (c *Coordinator) dequeue(date string) {
	c.mu.Lock()
	delete(c.queue, date)
	c.mu.Unlock()
}

// takeQueued removes and returns the current queue snapshot. Entries that
// fail again are re-queued unless a newer save claimed the date meanwhile.
func (c *Coordinator) takeQueued() []models.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]models.Entry, 0, len(c.queue))
	for _, e := range c.queue {
		snapshot = append(snapshot, e)
	}
	c.queue = make(map[string]models.Entry)
	return snapshot
}

func (c *Coordinator) requeueIfNotSuperseded(entry models.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.queue[entry.Date]; !ok {
		c.queue[entry.Date] = entry
	}
}

// drainQueue pushes queued entries to the remote store with capped
// exponential backoff. Whatever still fails after the final attempt stays
// queued for the next connectivity event.
func (c *Coordinator) drainQueue(ctx context.Context) {
	backoff := retry.NewExponential(drainBaseDelay)
	backoff = retry.WithCappedDuration(drainCapDelay, backoff)
	backoff = retry.WithJitter(drainJitter, backoff)
	backoff = retry.WithMaxRetries(drainMaxRetries, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		failed := c.attemptQueued(ctx)
		if failed > 0 {
			return retry.RetryableError(fmt.Errorf("%d entries still pending", failed))
		}
		return nil
	})
	if err != nil {
		c.logger.Warn(ctx, "retry queue not fully drained", "err", err)
	}
}

func (c *Coordinator) attemptQueued(ctx context.Context) int {
	pending := c.takeQueued()
	if len(pending) == 0 {
		return 0
	}
	c.logger.Info(ctx, "draining sync queue", "entries", len(pending))

	failed := 0
	for _, e := range pending {
		e := e
		if err := c.remote.Save(ctx, &e); err != nil {
			c.logger.Warn(ctx, "queued sync failed", "date", e.Date, "err", err)
			c.requeueIfNotSuperseded(e)
			failed++
		}
	}
	return failed
}

// syncLocalToRemote bulk-uploads every local entry. Push-only and
// non-deleting: remote documents are overwritten by local ones,
// last-writer-wins. Running it twice with no local changes is a no-op the
// second time as far as remote state is concerned. When the remote store is
// not reachable yet the upload is deferred until connectivity arrives.
func (c *Coordinator) syncLocalToRemote(ctx context.Context) {
	if !c.canRemote() {
		c.mu.Lock()
		c.pendingBulk = true
		c.mu.Unlock()
		return
	}

	entries, err := c.local.GetAll(ctx)
	if err != nil {
		c.logger.Warn(ctx, "bulk upload aborted, local read failed", "err", err)
		return
	}

	uploaded := 0
	for i := range entries {
		if err := c.remote.Save(ctx, &entries[i]); err != nil {
			c.logger.Warn(ctx, "bulk upload of entry failed", "date", entries[i].Date, "err", err)
			continue
		}
		uploaded++
	}
	c.logger.Info(ctx, "bulk upload finished", "uploaded", uploaded, "total", len(entries))
}

package sync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/auth"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocal struct {
	mu      sync.Mutex
	entries map[string]models.Entry
	cursor  *time.Time
	saveErr error
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{entries: map[string]models.Entry{}}
}

func (f *fakeLocal) Save(ctx context.Context, e *models.Entry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.Date] = *e
	return nil
}

func (f *fakeLocal) GetByDate(ctx context.Context, date string) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.entries[date]; ok {
		return &e, nil
	}
	return nil, nil
}

func (f *fakeLocal) GetAll(ctx context.Context) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeLocal) Search(ctx context.Context, text string) ([]models.Entry, error) {
	all, _ := f.GetAll(ctx)
	out := make([]models.Entry, 0, len(all))
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Content), strings.ToLower(text)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLocal) DeleteOlderThan(ctx context.Context, days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)
	f.mu.Lock()
	defer f.mu.Unlock()
	for date := range f.entries {
		if d, err := time.Parse(common.DateFormat, date); err == nil && d.Before(cutoff) {
			delete(f.entries, date)
		}
	}
	return nil
}

func (f *fakeLocal) SetCurrentDate(ctx context.Context, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = &t
	return nil
}

func (f *fakeLocal) GetCurrentDate(ctx context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursor != nil {
		return *f.cursor, nil
	}
	return time.Now(), nil
}

func (f *fakeLocal) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = map[string]models.Entry{}
	f.cursor = nil
	return nil
}

type fakeRemote struct {
	mu      sync.Mutex
	docs    map[string]models.Entry
	failing bool
	saves   []string // dates, in call order, including failed attempts
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: map[string]models.Entry{}}
}

func (f *fakeRemote) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *fakeRemote) Save(ctx context.Context, e *models.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, e.Date)
	if f.failing {
		return common.ErrUnavailable
	}
	if e.IsEmpty() {
		delete(f.docs, e.Date)
		return nil
	}
	f.docs[e.Date] = *e
	return nil
}

func (f *fakeRemote) GetByDate(ctx context.Context, date string) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, common.ErrUnavailable
	}
	if e, ok := f.docs[date]; ok {
		return &e, nil
	}
	return nil, nil
}

func (f *fakeRemote) GetAll(ctx context.Context) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, common.ErrUnavailable
	}
	out := make([]models.Entry, 0, len(f.docs))
	for _, e := range f.docs {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRemote) Search(ctx context.Context, text string) ([]models.Entry, error) {
	all, err := f.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entry, 0, len(all))
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Content), strings.ToLower(text)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRemote) DeleteOlderThan(ctx context.Context, days int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return common.ErrUnavailable
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	for date := range f.docs {
		if d, err := time.Parse(common.DateFormat, date); err == nil && d.Before(cutoff) {
			delete(f.docs, date)
		}
	}
	return nil
}

func (f *fakeRemote) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return common.ErrUnavailable
	}
	f.docs = map[string]models.Entry{}
	return nil
}

type fakeAuth struct {
	mu        sync.Mutex
	id        *auth.Identity
	resolveTo *auth.Identity // identity a later Initialize retry resolves to
	initCalls int
	listeners []func(*auth.Identity)
}

func (f *fakeAuth) Current() *auth.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *fakeAuth) IsAuthenticated() bool { return f.Current() != nil }

func (f *fakeAuth) Initialize(ctx context.Context) (*auth.Identity, error) {
	f.mu.Lock()
	f.initCalls++
	cur := f.id
	next := f.resolveTo
	f.mu.Unlock()

	if cur != nil {
		return cur, nil
	}
	if next == nil {
		return nil, common.ErrNoIdentity
	}
	f.transition(next)
	return next, nil
}

func (f *fakeAuth) Subscribe(fn func(*auth.Identity)) func() {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
	return func() {}
}

func (f *fakeAuth) transition(id *auth.Identity) {
	f.mu.Lock()
	f.id = id
	fns := append([]func(*auth.Identity){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

func anon() *auth.Identity {
	return &auth.Identity{ID: "u1", Provider: auth.ProviderAnonymous, Anonymous: true}
}

func linked() *auth.Identity {
	return &auth.Identity{ID: "u1", Provider: auth.ProviderPassword}
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeLocal, *fakeRemote, *fakeAuth) {
	t.Helper()
	local := newFakeLocal()
	rem := newFakeRemote()
	session := &fakeAuth{id: anon()}
	c := NewCoordinator(local, rem, session, logging.NewNop())
	t.Cleanup(c.Close)
	return c, local, rem, session
}

func entry(date, content string, mood *models.Mood) *models.Entry {
	now := time.Now().UTC()
	return &models.Entry{
		ID: "id-" + date, Date: date, Content: content, Mood: mood,
		Images: []string{}, CreatedAt: now, UpdatedAt: now,
	}
}

// P1: a successful save is readable back from the local store alone.
func TestCoordinator_Save_LocalDurability(t *testing.T) {
	c, local, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	e := entry("2024-06-15", "Good day", models.MoodPtr(models.MoodHappy))
	require.NoError(t, c.Save(ctx, e))

	got, err := local.GetByDate(ctx, "2024-06-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.Content, got.Content)
	assert.Equal(t, e.Mood, got.Mood)
	assert.Equal(t, e.Images, got.Images)
}

// P5: with the remote store always failing, everything still resolves from
// local.
func TestCoordinator_OfflineAvailability(t *testing.T) {
	c, _, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	rem.setFailing(true)
	c.SetOnline(ctx, true)

	require.NoError(t, c.Save(ctx, entry("2024-06-15", "Good day", models.MoodPtr(models.MoodHappy))))

	got, err := c.GetByDate(ctx, "2024-06-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Good day", got.Content)

	all, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	found, err := c.Search(ctx, "good")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCoordinator_Save_SkipsRemoteWhileOffline(t *testing.T) {
	c, _, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, entry("2024-06-15", "hi", nil)))
	assert.Empty(t, rem.saves)
}

// Offline save reaches remote after connectivity returns (scenario from the
// sync design): the queue only fills on a failed attempt, so an offline save
// is picked up by the linked-startup or queue path once a failure occurred.
func TestCoordinator_QueueDrainsOnReconnect(t *testing.T) {
	c, _, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	c.SetOnline(ctx, true)
	rem.setFailing(true)
	require.NoError(t, c.Save(ctx, entry("2024-06-15", "Good day", models.MoodPtr(models.MoodHappy))))

	// connection drops, then recovers
	c.SetOnline(ctx, false)
	rem.setFailing(false)
	c.SetOnline(ctx, true)

	rem.mu.Lock()
	_, ok := rem.docs["2024-06-15"]
	rem.mu.Unlock()
	assert.True(t, ok, "queued entry should reach remote after reconnect")
}

// P4: a newer save for the same date supersedes the queued one; only the
// newest content is ever persisted remotely.
func TestCoordinator_QueueSupersession(t *testing.T) {
	c, _, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	c.SetOnline(ctx, true)
	rem.setFailing(true)
	require.NoError(t, c.Save(ctx, entry("2024-06-15", "Hello", nil)))
	require.NoError(t, c.Save(ctx, entry("2024-06-15", "Hello world", nil)))

	c.SetOnline(ctx, false)
	rem.setFailing(false)
	c.SetOnline(ctx, true)

	rem.mu.Lock()
	doc := rem.docs["2024-06-15"]
	rem.mu.Unlock()
	assert.Equal(t, "Hello world", doc.Content)

	// the stale "Hello" version is never sent after the queue drain
	rem.mu.Lock()
	drained := rem.saves[len(rem.saves)-1:]
	rem.mu.Unlock()
	assert.Len(t, drained, 1)
}

// A successful direct save clears any stale queued version of the same date.
func TestCoordinator_DirectSaveClearsQueuedVersion(t *testing.T) {
	c, _, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	c.SetOnline(ctx, true)
	rem.setFailing(true)
	require.NoError(t, c.Save(ctx, entry("2024-06-15", "Hello", nil)))

	rem.setFailing(false)
	require.NoError(t, c.Save(ctx, entry("2024-06-15", "Hello world", nil)))

	c.mu.Lock()
	qlen := len(c.queue)
	c.mu.Unlock()
	assert.Zero(t, qlen)
}

// P3: saving a logically empty entry removes the remote document.
func TestCoordinator_EmptyEntryDeletesRemoteDocument(t *testing.T) {
	c, _, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	c.SetOnline(ctx, true)
	require.NoError(t, c.Save(ctx, entry("2024-06-15", "something", nil)))

	rem.mu.Lock()
	_, ok := rem.docs["2024-06-15"]
	rem.mu.Unlock()
	require.True(t, ok)

	require.NoError(t, c.Save(ctx, entry("2024-06-15", "", nil)))

	all, err := rem.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCoordinator_GetAll_EmptyRemoteFallsBackToLocal(t *testing.T) {
	c, local, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, local.Save(ctx, entry("2024-06-15", "local only", nil)))
	c.SetOnline(ctx, true)

	all, err := c.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "local only", all[0].Content)
}

func TestCoordinator_GetAll_PrefersPopulatedRemote(t *testing.T) {
	c, local, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, local.Save(ctx, entry("2024-06-15", "stale local", nil)))
	require.NoError(t, rem.Save(ctx, entry("2024-06-15", "fresh remote", nil)))
	c.SetOnline(ctx, true)

	all, err := c.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fresh remote", all[0].Content)
}

// P6: bulk upload is idempotent.
func TestCoordinator_BulkUploadIdempotent(t *testing.T) {
	c, local, rem, session := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, local.Save(ctx, entry("2024-06-14", "day one", nil)))
	require.NoError(t, local.Save(ctx, entry("2024-06-15", "day two", nil)))
	c.SetOnline(ctx, true)

	session.transition(linked())
	first, err := rem.GetAll(ctx)
	require.NoError(t, err)

	c.syncLocalToRemote(ctx)
	second, err := rem.GetAll(ctx)
	require.NoError(t, err)

	assert.ElementsMatch(t, first, second)
	assert.Len(t, second, 2)
}

// Linking while offline uploads nothing immediately; the bulk upload is
// deferred until connectivity arrives.
func TestCoordinator_LinkWhileOfflineUploadsOnReconnect(t *testing.T) {
	c, local, rem, session := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, local.Save(ctx, entry("2024-06-15", "hi", nil)))
	c.SetOnline(ctx, false)

	session.transition(linked())
	assert.Empty(t, rem.saves)

	c.SetOnline(ctx, true)

	docs, err := rem.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1, "linked device's local history should upload once online")
}

func TestCoordinator_StartUploadsWhenAlreadyLinked(t *testing.T) {
	local := newFakeLocal()
	rem := newFakeRemote()
	session := &fakeAuth{id: linked()}
	c := NewCoordinator(local, rem, session, logging.NewNop())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, local.Save(ctx, entry("2024-06-15", "history", nil)))
	c.SetOnline(ctx, true)
	c.Start(ctx)

	docs, err := rem.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

// Startup order in the app: Start runs before the first connectivity probe,
// so the already-linked upload must survive being triggered while offline.
func TestCoordinator_StartBeforeConnectivityUploadsOnFirstOnline(t *testing.T) {
	local := newFakeLocal()
	rem := newFakeRemote()
	session := &fakeAuth{id: linked()}
	c := NewCoordinator(local, rem, session, logging.NewNop())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, local.Save(ctx, entry("2024-06-15", "history", nil)))
	c.Start(ctx)
	assert.Empty(t, rem.saves)

	c.SetOnline(ctx, true)

	docs, err := rem.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1, "linked device's local history should be bulk-uploaded after startup")
}

// A device that failed identity resolution at launch resolves it on the
// first offline→online transition, re-enabling remote sync for good.
func TestCoordinator_ReconnectRetriesIdentityResolution(t *testing.T) {
	local := newFakeLocal()
	rem := newFakeRemote()
	session := &fakeAuth{resolveTo: linked()}
	c := NewCoordinator(local, rem, session, logging.NewNop())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, local.Save(ctx, entry("2024-06-15", "written offline", nil)))
	c.Start(ctx)
	assert.Empty(t, rem.saves)

	c.SetOnline(ctx, true)

	assert.Equal(t, 1, session.initCalls)
	require.NotNil(t, session.Current())

	docs, err := rem.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestCoordinator_Save_LocalFailurePropagates(t *testing.T) {
	c, local, _, _ := newTestCoordinator(t)
	boom := errors.New("disk full")
	local.saveErr = boom

	err := c.Save(context.Background(), entry("2024-06-15", "hi", nil))
	assert.ErrorIs(t, err, boom)
}

func TestCoordinator_Save_RejectsInvalidEntry(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	err := c.Save(context.Background(), &models.Entry{Date: "June 15"})
	assert.ErrorIs(t, err, common.ErrInvalidDate)
}

func TestCoordinator_DeleteOlderThan_RemoteFailureSwallowed(t *testing.T) {
	c, local, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -60).Format(common.DateFormat)
	require.NoError(t, local.Save(ctx, entry(old, "old", nil)))

	c.SetOnline(ctx, true)
	rem.setFailing(true)

	require.NoError(t, c.DeleteOlderThan(ctx, 30))

	all, err := local.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCoordinator_ClearAll_WipesBothStores(t *testing.T) {
	c, local, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	c.SetOnline(ctx, true)
	require.NoError(t, c.Save(ctx, entry("2024-06-15", "hi", nil)))

	require.NoError(t, c.ClearAll(ctx))

	locals, err := local.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, locals)

	remotes, err := rem.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, remotes)
}

func TestCoordinator_CurrentDateCursorIsLocalOnly(t *testing.T) {
	c, _, rem, _ := newTestCoordinator(t)
	ctx := context.Background()

	c.SetOnline(ctx, true)
	want := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.SetCurrentDate(ctx, want))

	got, err := c.GetCurrentDate(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))
	assert.Empty(t, rem.saves)
}

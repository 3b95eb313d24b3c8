package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/daybook/internal/client/auth"
	"github.com/dmitrijs2005/daybook/internal/client/journal"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/sync"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

// memLocal is an in-memory stand-in for the SQLite-backed store.
type memLocal struct {
	entries map[string]models.Entry
	cursor  time.Time
}

func newMemLocal() *memLocal {
	return &memLocal{entries: make(map[string]models.Entry)}
}

func (m *memLocal) Save(_ context.Context, e *models.Entry) error {
	m.entries[e.Date] = *e
	return nil
}

func (m *memLocal) GetByDate(_ context.Context, date string) (*models.Entry, error) {
	e, ok := m.entries[date]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memLocal) GetAll(_ context.Context) ([]models.Entry, error) {
	out := make([]models.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *memLocal) Search(_ context.Context, text string) ([]models.Entry, error) {
	var out []models.Entry
	for _, e := range m.entries {
		if strings.Contains(strings.ToLower(e.Content), strings.ToLower(text)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLocal) DeleteOlderThan(_ context.Context, days int) error {
	cutoff := time.Now().AddDate(0, 0, -days).Format(common.DateFormat)
	for date := range m.entries {
		if date < cutoff {
			delete(m.entries, date)
		}
	}
	return nil
}

func (m *memLocal) SetCurrentDate(_ context.Context, t time.Time) error {
	m.cursor = t
	return nil
}

func (m *memLocal) GetCurrentDate(_ context.Context) (time.Time, error) {
	if m.cursor.IsZero() {
		return time.Now(), nil
	}
	return m.cursor, nil
}

func (m *memLocal) ClearAll(_ context.Context) error {
	m.entries = make(map[string]models.Entry)
	return nil
}

// memRemote satisfies the remote store surface; the session in these tests is
// never linked, so the coordinator leaves it alone.
type memRemote struct{}

func (memRemote) Save(context.Context, *models.Entry) error { return nil }
func (memRemote) GetByDate(context.Context, string) (*models.Entry, error) {
	return nil, nil
}
func (memRemote) GetAll(context.Context) ([]models.Entry, error)        { return nil, nil }
func (memRemote) Search(context.Context, string) ([]models.Entry, error) { return nil, nil }
func (memRemote) DeleteOlderThan(context.Context, int) error            { return nil }
func (memRemote) ClearAll(context.Context) error                        { return nil }

type fakeProvider struct {
	linkErr error
}

func (f *fakeProvider) RegisterAnonymous(context.Context) (*auth.Credentials, error) {
	return &auth.Credentials{
		Identity:     auth.Identity{ID: "anon-1", Provider: auth.ProviderAnonymous, Anonymous: true},
		RefreshToken: "rt-anon",
	}, nil
}

func (f *fakeProvider) Refresh(context.Context, string) (*auth.Credentials, error) {
	return nil, common.ErrUnauthenticated
}

func (f *fakeProvider) Link(_ context.Context, username, _ string) (*auth.Credentials, error) {
	if f.linkErr != nil {
		return nil, f.linkErr
	}
	return &auth.Credentials{
		Identity:     auth.Identity{ID: "anon-1", Provider: auth.ProviderPassword, Anonymous: false},
		RefreshToken: "rt-" + username,
	}, nil
}

func (f *fakeProvider) Login(_ context.Context, username, _ string) (*auth.Credentials, error) {
	return &auth.Credentials{
		Identity:     auth.Identity{ID: "user-" + username, Provider: auth.ProviderPassword, Anonymous: false},
		RefreshToken: "rt-" + username,
	}, nil
}

type memMeta struct {
	data map[string][]byte
}

func newMemMeta() *memMeta { return &memMeta{data: make(map[string][]byte)} }

func (m *memMeta) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return v, nil
}

func (m *memMeta) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memMeta) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func newTestApp(t *testing.T, provider auth.Provider) (*App, *memLocal) {
	t.Helper()

	local := newMemLocal()
	session := auth.NewSession(provider, newMemMeta(), logging.NewNop())
	coord := sync.NewCoordinator(local, memRemote{}, session, logging.NewNop())
	t.Cleanup(coord.Close)

	return &App{
		logger:  logging.NewNop(),
		session: session,
		coord:   coord,
		journal: journal.NewService(coord),
		reader:  bufio.NewReader(strings.NewReader("")),
	}, local
}

func stubSimpleText(t *testing.T, answers ...string) {
	t.Helper()
	orig := getSimpleText
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		a := answers[i]
		i++
		return a, nil
	}
	t.Cleanup(func() { getSimpleText = orig })
}

func stubMultiline(t *testing.T, text string) {
	t.Helper()
	orig := getMultiline
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		return text, nil
	}
	t.Cleanup(func() { getMultiline = orig })
}

func stubPassword(t *testing.T, pw []byte) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return pw, nil }
	t.Cleanup(func() { getPassword = orig })
}

func TestWrite_SavesCurrentNote(t *testing.T) {
	ctx := context.Background()
	a, local := newTestApp(t, &fakeProvider{})

	require.NoError(t, a.Today(ctx))

	stubMultiline(t, "walked by the river")
	require.NoError(t, a.Write(ctx))

	today := time.Now().Format(common.DateFormat)
	saved, ok := local.entries[today]
	require.True(t, ok)
	assert.Equal(t, "walked by the river", saved.Content)
	assert.NotEmpty(t, saved.ID)
}

func TestWrite_KeepsMoodAndImages(t *testing.T) {
	ctx := context.Background()
	a, local := newTestApp(t, &fakeProvider{})

	require.NoError(t, a.Today(ctx))

	stubSimpleText(t, "4")
	require.NoError(t, a.Mood(ctx))

	stubMultiline(t, "rewritten")
	require.NoError(t, a.Write(ctx))

	today := time.Now().Format(common.DateFormat)
	saved := local.entries[today]
	require.NotNil(t, saved.Mood)
	assert.Equal(t, models.Mood(4), *saved.Mood)
	assert.Equal(t, "rewritten", saved.Content)
}

func TestMood_RejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	a, local := newTestApp(t, &fakeProvider{})

	stubSimpleText(t, "9")
	require.Error(t, a.Mood(ctx))
	assert.Empty(t, local.entries)

	stubSimpleText(t, "abc")
	require.Error(t, a.Mood(ctx))
	assert.Empty(t, local.entries)
}

func TestAddImage_Deduplicates(t *testing.T) {
	ctx := context.Background()
	a, local := newTestApp(t, &fakeProvider{})

	stubSimpleText(t, "photos/sunset.jpg", "photos/sunset.jpg")
	require.NoError(t, a.AddImage(ctx))
	require.NoError(t, a.AddImage(ctx))

	today := time.Now().Format(common.DateFormat)
	assert.Equal(t, []string{"photos/sunset.jpg"}, local.entries[today].Images)
}

func TestOpen_InvalidDate(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, &fakeProvider{})

	stubSimpleText(t, "31-12-2025")
	require.Error(t, a.Open(ctx))
}

func TestClear_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	a, local := newTestApp(t, &fakeProvider{})

	require.NoError(t, a.Today(ctx))
	stubMultiline(t, "precious memories")
	require.NoError(t, a.Write(ctx))
	require.NotEmpty(t, local.entries)

	stubSimpleText(t, "no")
	require.NoError(t, a.Clear(ctx))
	assert.NotEmpty(t, local.entries)

	stubSimpleText(t, "yes")
	require.NoError(t, a.Clear(ctx))
	assert.Empty(t, local.entries)
}

func TestLink_UpgradesIdentity(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, &fakeProvider{})

	_, err := a.session.Initialize(ctx)
	require.NoError(t, err)
	require.False(t, a.isLinked())

	stubSimpleText(t, "alice")
	stubPassword(t, []byte("secret"))
	require.NoError(t, a.Link(ctx))

	require.True(t, a.isLinked())
	id := a.session.Current()
	assert.Equal(t, "anon-1", id.ID, "linking keeps the identity id")
}

func TestLink_UsernameTaken(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, &fakeProvider{linkErr: common.ErrUsernameTaken})

	_, err := a.session.Initialize(ctx)
	require.NoError(t, err)

	stubSimpleText(t, "alice")
	stubPassword(t, []byte("secret"))
	require.ErrorIs(t, a.Link(ctx), common.ErrUsernameTaken)
	require.False(t, a.isLinked())
}

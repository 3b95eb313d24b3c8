package cli

import (
	"bufio"
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/daybook/internal/client/auth"
	"github.com/dmitrijs2005/daybook/internal/client/config"
	"github.com/dmitrijs2005/daybook/internal/client/journal"
	"github.com/dmitrijs2005/daybook/internal/client/remote"
	"github.com/dmitrijs2005/daybook/internal/client/store"
	"github.com/dmitrijs2005/daybook/internal/client/sync"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

// App wires the local store, the backend client, the auth session and the
// sync coordinator into the interactive command-line journal.
type App struct {
	config  *config.Config
	logger  logging.Logger
	session *auth.Session
	coord   *sync.Coordinator
	journal *journal.Service
	watcher *sync.Watcher
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	db, err := store.Open(ctx, c.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	local := store.NewSQLiteStore(db, logger)
	meta := store.NewMetadataRepository(db)

	apiClient := remote.NewClient(c.ServerEndpointAddr)
	session := auth.NewSession(apiClient, meta, logger)
	remoteStore := remote.NewStore(apiClient, session)

	coord := sync.NewCoordinator(local, remoteStore, session, logger)
	watcher := sync.NewWatcher(apiClient, coord, c.OnlineCheckInterval, logger)

	return &App{
		config:  c,
		logger:  logger,
		session: session,
		coord:   coord,
		journal: journal.NewService(coord),
		watcher: watcher,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run resolves the identity, starts the connectivity watcher and blocks in
// the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.coord.Close()

	if _, err := a.session.Initialize(ctx); err != nil {
		if errors.Is(err, common.ErrNoIdentity) {
			a.logger.Warn(ctx, "no identity available, entries will stay on this device until the server is reachable")
		} else {
			a.logger.Warn(ctx, "identity resolution failed", "error", err)
		}
	}
	a.coord.Start(ctx)

	go a.watcher.Run(ctx)

	a.Root(ctx)
}

func (a *App) isLinked() bool {
	id := a.session.Current()
	return id != nil && !id.Anonymous
}

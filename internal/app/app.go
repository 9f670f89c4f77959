package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ppdmloader/internal/config"
	"ppdmloader/internal/dbclient"
	"ppdmloader/internal/fetch"
	"ppdmloader/internal/loader"
	"ppdmloader/internal/secret"
	"ppdmloader/internal/service"
	"ppdmloader/internal/storage"
)

// App wires configuration, state storage, the loader and its service.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	db      *storage.DB
	secrets secret.SecretStore
	loader  *loader.Loader
	service *service.LoaderService
}

// New opens the state database and builds the loader pipeline. Runs left
// in the running state by a previous process are marked interrupted.
func New(cfg *config.Config, logger *zap.Logger, emitter service.EventEmitter) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:     cfg,
		logger:  logger,
		secrets: secret.Chain{secret.NewEnvStore(""), secret.NewKeychainStore()},
	}

	db, err := storage.New(cfg.State.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open state database")
	}
	a.db = db

	runs := storage.NewRunStore(db)
	if n, err := runs.MarkInterrupted(); err != nil {
		logger.Warn("mark interrupted runs failed", zap.Error(err))
	} else if n > 0 {
		logger.Warn("previous runs did not finish", zap.Int("count", n))
	}

	fetcher := fetch.New(cfg.Download.Dir, cfg.Download.Timeout, logger)
	a.loader = loader.New(loader.Config{
		Surface:         cfg.Source.Surface,
		BottomHole:      cfg.Source.BottomHole,
		WellTable:       cfg.Schema.WellTable,
		FallbackLength:  cfg.Schema.FallbackLength,
		ReferenceTables: cfg.Reference.Tables,
	}, fetcher, a.connect, logger)
	a.service = service.NewLoaderService(a.loader, runs, emitter, logger)
	return a, nil
}

// Service returns the loader service.
func (a *App) Service() *service.LoaderService { return a.service }

// connect opens the destination store named by the configuration.
func (a *App) connect(ctx context.Context) (dbclient.Connector, error) {
	password, err := a.password()
	if err != nil {
		return nil, err
	}
	conn, err := dbclient.NewConnector(&a.cfg.Destination.DatabaseConnection, password, a.logger)
	if err != nil {
		return nil, err
	}
	if err := conn.TestConnection(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "connect to %s destination", a.cfg.Destination.Driver)
	}
	return conn, nil
}

// password prefers an explicit destination.password, then the secret store.
func (a *App) password() (string, error) {
	if a.cfg.Destination.Password != "" {
		return a.cfg.Destination.Password, nil
	}
	key := a.cfg.Destination.SecretKey
	if key == "" {
		return "", nil
	}
	v, err := a.secrets.Get(key)
	if err != nil {
		return "", errors.Wrapf(err, "read secret %q", key)
	}
	if len(v) == 0 {
		a.logger.Warn("no password stored for destination", zap.String("secretKey", key))
	}
	return string(v), nil
}

// Shutdown stops watchers, waits up to grace for a running load and
// closes the state database.
func (a *App) Shutdown(grace time.Duration) {
	if a.service != nil {
		a.service.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), grace)
		a.service.WaitRunning(ctx)
		cancel()
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

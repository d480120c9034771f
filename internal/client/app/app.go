// Package app wires configuration, the local database, the snapshot source,
// the health probe and the sync service into a runnable client.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophsync/internal/client/client"
	"github.com/dmitrijs2005/gophsync/internal/client/config"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/gophsync/internal/client/services"
	"github.com/dmitrijs2005/gophsync/internal/client/snapshot"
	"github.com/dmitrijs2005/gophsync/internal/filex"
	"github.com/dmitrijs2005/gophsync/internal/logging"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	prober  client.Prober
	service *services.SyncService
}

// NewApp opens the database, runs migrations and builds the sync service.
// Log lines go to w as JSON.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.NewJSONLogger(w, c.LogLevel)
	if err != nil {
		return nil, err
	}
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}

	if _, err := filex.EnsureParentDir(c.DBPath); err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	repos := repomanager.NewSQLiteRepositoryManager()
	db, err := repomanager.OpenDatabase(ctx, c.DBPath, repos)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	source, err := snapshot.Open(ctx, c.SnapshotLocation, snapshot.S3Config{
		Region:    c.S3Region,
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot source error: %w", err)
	}

	var prober client.Prober
	if c.ServerEndpointAddr != "" {
		gc, err := client.NewGRPCClient(c.ServerEndpointAddr, c.HealthService, c.AccessToken)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("health client error: %w", err)
		}
		prober = gc
	}

	svc := services.NewSyncService(db, repos, source, prober, logger, services.SyncOptions{
		Policy:          policy,
		RequireNonEmpty: c.RequireNonEmpty,
	})

	return &App{config: c, logger: logger, db: db, prober: prober, service: svc}, nil
}

// withSignals returns a context cancelled on SIGINT, SIGTERM or SIGQUIT.
// stop releases the signal registration.
func withSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

// Run performs one cycle in once mode, otherwise syncs periodically until
// a termination signal arrives or ctx is done. Resources are released on
// return.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := withSignals(ctx)
	defer stop()
	defer app.close(ctx)

	app.logger.Info(ctx, "Starting app...",
		"db", app.config.DBPath, "snapshot", app.config.SnapshotLocation,
		"policy", app.config.DeletionPolicy, "once", app.config.Once)

	if app.config.Once {
		rep, err := app.service.SyncIfOnline(ctx)
		if err != nil {
			return err
		}
		if rep.Unchanged {
			app.logger.Info(ctx, "nothing to do", "revision", rep.Revision)
		}
		return nil
	}

	return app.runLoop(ctx)
}

// runLoop runs the periodic sync and, when watching a file snapshot, the
// file watcher. Either one failing stops both.
func (app *App) runLoop(ctx context.Context) error {
	var wake <-chan struct{}
	g, ctx := errgroup.WithContext(ctx)

	if app.config.Watch {
		loc, err := snapshot.ParseLocation(app.config.SnapshotLocation)
		if err != nil {
			return err
		}
		if loc.IsS3() {
			app.logger.Warn(ctx, "watch ignored for S3 snapshots", "snapshot", app.config.SnapshotLocation)
		} else {
			w, err := snapshot.NewWatcher(loc.Path, snapshot.DefaultDebounce, app.logger)
			if err != nil {
				return err
			}
			wake = w.C()
			g.Go(func() error { return w.Run(ctx) })
		}
	}

	g.Go(func() error {
		app.service.Run(ctx, app.config.SyncInterval, app.config.OnlineCheckInterval, wake)
		return nil
	})

	err := g.Wait()
	app.logger.Info(ctx, "Stopped")
	return err
}

func (app *App) close(ctx context.Context) {
	var errs []error
	if app.prober != nil {
		errs = append(errs, app.prober.Close())
	}
	errs = append(errs, app.db.Close())
	if err := errors.Join(errs...); err != nil {
		app.logger.Error(ctx, "shutdown", "error", err)
	}
}

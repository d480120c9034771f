package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/client"
	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/gophsync/internal/client/snapshot"
	"github.com/dmitrijs2005/gophsync/internal/dbx"
	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/dmitrijs2005/gophsync/internal/reconcile"
)

// Metadata keys written after every applied snapshot.
const (
	KeyLastSyncRevision = "last_sync_revision"
	KeyLastSyncAt       = "last_sync_at"
)

// ErrOffline is returned by SyncOnce when the server probe fails.
var ErrOffline = errors.New("sync server is offline")

// SyncOptions tune reconciliation. The policy and guard apply to vaults and
// to every child collection.
type SyncOptions struct {
	Policy          reconcile.DeletionPolicy
	RequireNonEmpty bool

	// Now stamps soft deletions and last_sync_at. Defaults to time.Now in UTC.
	Now func() time.Time
}

// SyncReport describes one cycle.
type SyncReport struct {
	Revision string
	// Unchanged is set when the snapshot revision was already applied.
	Unchanged bool
	Result    reconcile.Result[string]
	// Inventory is taken after a committed cycle that changed the store.
	Inventory *Inventory
}

type vaultTask = reconcile.ChildTask[string, models.VaultDTO, *models.Vault]

type SyncService struct {
	mu sync.Mutex

	db     *sql.DB
	tx     *dbx.TxRunner
	repos  repomanager.RepositoryManager
	source snapshot.Source
	prober client.Prober
	logger logging.Logger
	opts   SyncOptions
}

// NewSyncService wires the service. prober may be nil, in which case the
// server is assumed reachable.
func NewSyncService(db *sql.DB, repos repomanager.RepositoryManager, source snapshot.Source,
	prober client.Prober, logger logging.Logger, opts SyncOptions) *SyncService {

	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &SyncService{
		db:     db,
		tx:     dbx.NewTxRunner(db, nil),
		repos:  repos,
		source: source,
		prober: prober,
		logger: logger,
		opts:   opts,
	}
}

// Ping probes the sync server.
func (s *SyncService) Ping(ctx context.Context) error {
	if s.prober == nil {
		return nil
	}
	return s.prober.Ping(ctx)
}

// SyncOnce runs one cycle: fetch, skip when the revision is already applied,
// otherwise reconcile and record the revision in the same transaction.
func (s *SyncService) SyncOnce(ctx context.Context) (SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.source.Fetch(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("fetch snapshot from %s: %w", s.source, err)
	}
	rep := SyncReport{Revision: snap.Revision}

	last, err := s.LastRevision(ctx)
	if err != nil {
		return rep, err
	}
	if snap.Revision != "" && snap.Revision == last {
		rep.Unchanged = true
		s.logger.Debug(ctx, "snapshot already applied", "revision", snap.Revision)
		return rep, nil
	}

	uow := reconcile.UnitOfWorkFunc(func(ctx context.Context, fn func(context.Context, dbx.DBTX) error) error {
		return s.tx.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			if err := fn(ctx, tx); err != nil {
				return err
			}
			return s.recordRevision(ctx, tx, snap.Revision)
		})
	})

	res, err := s.reconciler(uow).Reconcile(ctx, snap.Vaults)
	if err != nil {
		return rep, fmt.Errorf("reconcile snapshot %q: %w", snap.Revision, err)
	}
	rep.Result = res

	s.logger.Info(ctx, "snapshot applied",
		"revision", snap.Revision, "vaults", len(snap.Vaults), "changed", changed(res))

	if changed(res) {
		inv, err := s.Inventory(ctx)
		if err != nil {
			s.logger.Warn(ctx, "inventory failed", "error", err)
			return rep, nil
		}
		rep.Inventory = &inv
		s.logger.Info(ctx, "local store",
			"vaults", inv.Vaults, "entries", inv.Total(), "unreadable", inv.Unreadable)
	}
	return rep, nil
}

// SyncIfOnline probes the server first and runs SyncOnce only when it
// answers. A failed probe is returned wrapped in ErrOffline.
func (s *SyncService) SyncIfOnline(ctx context.Context) (SyncReport, error) {
	if err := s.Ping(ctx); err != nil {
		return SyncReport{}, fmt.Errorf("%w: %w", ErrOffline, err)
	}
	return s.SyncOnce(ctx)
}

// LastRevision returns the revision recorded by the last applied cycle, or
// "" when none was.
func (s *SyncService) LastRevision(ctx context.Context) (string, error) {
	v, err := s.repos.Metadata(s.db).Get(ctx, KeyLastSyncRevision)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SyncService) recordRevision(ctx context.Context, tx dbx.DBTX, revision string) error {
	md := s.repos.Metadata(tx)
	if err := md.Set(ctx, KeyLastSyncRevision, []byte(revision)); err != nil {
		return err
	}
	at := s.opts.Now().UTC().Format(time.RFC3339Nano)
	return md.Set(ctx, KeyLastSyncAt, []byte(at))
}

// Run calls SyncOnce every interval until ctx is done. While the server
// probe fails, cycles are skipped and the probe is retried every
// probeInterval instead. A signal on wake starts a cycle early; wake may be
// nil. Failures are logged and retried on the next tick.
func (s *SyncService) Run(ctx context.Context, interval, probeInterval time.Duration, wake <-chan struct{}) {
	if probeInterval <= 0 {
		probeInterval = interval
	}
	timer := time.NewTimer(0)
	defer timer.Stop()

	online := true
	for {
		select {
		case <-timer.C:
		case <-wake:
			s.logger.Debug(ctx, "sync woken early")
		case <-ctx.Done():
			return
		}

		if err := s.tick(ctx, &online); err != nil && ctx.Err() == nil {
			s.logger.Error(ctx, "sync cycle failed", "error", err)
		}

		next := interval
		if !online {
			next = probeInterval
		}
		timer.Reset(next)
	}
}

func (s *SyncService) tick(ctx context.Context, online *bool) error {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := s.Ping(pingCtx)
	cancel()

	if err != nil {
		if *online {
			*online = false
			s.logger.Warn(ctx, "switched to offline mode", "error", err)
		}
		return nil
	}
	if !*online {
		*online = true
		s.logger.Info(ctx, "switched to online mode")
	}

	_, err = s.SyncOnce(ctx)
	return err
}

func (s *SyncService) reconciler(uow reconcile.UnitOfWork) *reconcile.Reconciler[string, models.VaultDTO, *models.Vault] {
	bind := func(tx dbx.DBTX) reconcile.Pass[string, models.VaultDTO, *models.Vault] {
		return reconcile.Pass[string, models.VaultDTO, *models.Vault]{
			Store:           s.repos.Vaults(tx),
			Apply:           applyVault,
			Create:          createVault,
			Policy:          s.opts.Policy,
			RequireNonEmpty: s.opts.RequireNonEmpty,
			Now:             s.opts.Now,
		}
	}
	return reconcile.NewReconciler("vaults", uow, bind, reconcile.WithLogger(s.logger)).
		Register(s.entriesTask(), s.membersTask())
}

func (s *SyncService) entriesTask() vaultTask {
	return &reconcile.Children[string, models.VaultDTO, *models.Vault, string, models.EntryDTO, *models.Entry]{
		Name:    "entries",
		Extract: func(v models.VaultDTO) []models.EntryDTO { return v.Entries },
		Bind: func(tx dbx.DBTX) reconcile.ChildPass[*models.Vault, string, models.EntryDTO, *models.Entry] {
			repo := s.repos.Entries(tx)
			return reconcile.ChildPass[*models.Vault, string, models.EntryDTO, *models.Entry]{
				Store: repo,
				Scope: func(ctx context.Context, v *models.Vault) ([]*models.Entry, error) {
					return repo.FindByVault(ctx, v.ID)
				},
				Apply:           applyEntry,
				Create:          createEntry,
				Link:            linkEntry,
				Policy:          s.opts.Policy,
				RequireNonEmpty: s.opts.RequireNonEmpty,
				Now:             s.opts.Now,
			}
		},
		Tasks: []reconcile.ChildTask[string, models.EntryDTO, *models.Entry]{s.filesTask()},
	}
}

func (s *SyncService) membersTask() vaultTask {
	return &reconcile.Children[string, models.VaultDTO, *models.Vault, string, models.MemberDTO, *models.Member]{
		Name:    "members",
		Extract: func(v models.VaultDTO) []models.MemberDTO { return v.Members },
		Bind: func(tx dbx.DBTX) reconcile.ChildPass[*models.Vault, string, models.MemberDTO, *models.Member] {
			repo := s.repos.Members(tx)
			return reconcile.ChildPass[*models.Vault, string, models.MemberDTO, *models.Member]{
				Store: repo,
				Scope: func(ctx context.Context, v *models.Vault) ([]*models.Member, error) {
					return repo.FindByVault(ctx, v.ID)
				},
				Apply:           applyMember,
				Create:          createMember,
				Link:            linkMember,
				Policy:          s.opts.Policy,
				RequireNonEmpty: s.opts.RequireNonEmpty,
				Now:             s.opts.Now,
			}
		},
	}
}

func (s *SyncService) filesTask() reconcile.ChildTask[string, models.EntryDTO, *models.Entry] {
	return &reconcile.Children[string, models.EntryDTO, *models.Entry, string, models.FileDTO, *models.File]{
		Name:    "files",
		Extract: func(e models.EntryDTO) []models.FileDTO { return e.Files },
		Bind: func(tx dbx.DBTX) reconcile.ChildPass[*models.Entry, string, models.FileDTO, *models.File] {
			repo := s.repos.Files(tx)
			return reconcile.ChildPass[*models.Entry, string, models.FileDTO, *models.File]{
				Store: repo,
				Scope: func(ctx context.Context, e *models.Entry) ([]*models.File, error) {
					return repo.FindByEntry(ctx, e.ID)
				},
				Apply:           applyFile,
				Create:          createFile,
				Link:            linkFile,
				Policy:          s.opts.Policy,
				RequireNonEmpty: s.opts.RequireNonEmpty,
				Now:             s.opts.Now,
			}
		},
	}
}

func changed(res reconcile.Result[string]) bool {
	if res.Changed() {
		return true
	}
	for _, c := range res.Children {
		if c.Changed() {
			return true
		}
	}
	return false
}

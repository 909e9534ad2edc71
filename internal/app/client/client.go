package client

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"studiosync/internal/app/client/bus"
	"studiosync/internal/app/client/config"
	"studiosync/internal/app/client/effects"
	"studiosync/internal/domain/booking"
	"studiosync/internal/domain/ledger"
	"studiosync/internal/domain/syncqueue"
	syncer "studiosync/internal/sync"
)

// App wires the offline-first client: local store, domain services, side
// effects, and the background reconciler. All foreground operations complete
// against the local store; sync is always asynchronous.
type App struct {
	config     *config.Config
	log        *slog.Logger
	bus        *bus.Bus
	store      *Store
	remote     *RemoteClient
	reconciler *syncer.Reconciler

	Bookings *booking.Service
	Ledger   *ledger.Service

	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	b := bus.New()

	store, err := NewStore(cfg.DataPath, b, log)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	remote := NewRemoteClient(cfg, log)

	ledgerSvc := ledger.NewService(NewLedgerRepository(store), log)

	dispatcher := effects.NewDispatcher(
		&effects.DirFolderCreator{Base: cfg.SessionsDir},
		&effects.StoreReminderScheduler{Store: store},
		&effects.StoreResourcePool{Store: store, DefaultCapacity: 4},
		store,
		log,
	)

	bookingSvc := booking.NewService(NewBookingRepository(store), dispatcher, ledgerSvc, log)

	rcfg := syncer.DefaultConfig()
	if cfg.PushInterval > 0 {
		rcfg.PushInterval = time.Duration(cfg.PushInterval) * time.Second
	}
	if cfg.PullInterval > 0 {
		rcfg.PullInterval = time.Duration(cfg.PullInterval) * time.Second
	}
	reconciler := syncer.NewReconciler(store, store, remote, store.Notify(), rcfg, log)

	return &App{
		config:     cfg,
		log:        log,
		bus:        b,
		store:      store,
		remote:     remote,
		reconciler: reconciler,
		Bookings:   bookingSvc,
		Ledger:     ledgerSvc,
	}, nil
}

// Start launches the reconciler and the daily retention sweep.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.reconciler.Start(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.retentionLoop(ctx)
	}()
}

func (a *App) Stop() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.reconciler.Stop()
	a.wg.Wait()
	return a.store.Close()
}

func (a *App) retentionLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		if _, err := a.store.PurgeSoftDeleted(ctx, time.Now().Add(-SoftDeleteRetention)); err != nil {
			a.log.Error("retention sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SyncNow runs one synchronous push and pull pass, for the CLI's explicit
// sync command. Background cadence is unaffected.
func (a *App) SyncNow(ctx context.Context) {
	a.reconciler.PushPass(ctx)
	a.reconciler.PullPass(ctx)
}

func (a *App) Online() bool {
	return a.reconciler.Online()
}

func (a *App) QueueHealth(ctx context.Context) (syncqueue.Health, error) {
	return a.store.Health(ctx)
}

func (a *App) FollowUps(ctx context.Context) ([]FollowUp, error) {
	return a.store.ListFollowUps(ctx)
}

func (a *App) Bus() *bus.Bus {
	return a.bus
}

func (a *App) Store() *Store {
	return a.store
}

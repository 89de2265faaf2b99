// Package trainer assembles the catalog, the progress store, the sync reconciler and
// the study session into one application used by the trainer commands.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vocabtrainer/backend/internal/cache"
	"github.com/vocabtrainer/backend/internal/catalog"
	"github.com/vocabtrainer/backend/internal/config"
	"github.com/vocabtrainer/backend/internal/models"
	"github.com/vocabtrainer/backend/internal/reconciler"
	"github.com/vocabtrainer/backend/internal/remote"
	"github.com/vocabtrainer/backend/internal/session"
	"github.com/vocabtrainer/backend/internal/store"
	"go.uber.org/zap"
)

// Dependencies are the collaborators of an App that talk to the outside world
type Dependencies struct {
	Catalog *catalog.Catalog
	Cache   cache.Cache
	Remote  reconciler.RemoteStore // nil disables sync
}

// Option configures an App
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used by the store, the reconciler and the session
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// App is a running trainer for one learner at a time
type App struct {
	cfg        *config.TrainerConfig
	catalog    *catalog.Catalog
	cache      cache.Cache
	store      *store.Store
	reconciler *reconciler.Reconciler
	session    *session.Controller
	logger     *zap.Logger

	mu              sync.Mutex
	notices         []models.Notice
	reauthRequested bool
}

// Open loads the catalog, opens the local cache and the remote client, and assembles the App
func Open(ctx context.Context, cfg *config.TrainerConfig, logger *zap.Logger, opts ...Option) (*App, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	local, err := cache.Open(ctx, cache.Options{
		Driver:        cache.Driver(cfg.Cache.Driver),
		Path:          cfg.Cache.Path,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		RedisPrefix:   cfg.Cache.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	deps := Dependencies{Catalog: cat, Cache: local}
	if cfg.Remote.BaseURL != "" {
		deps.Remote = remote.NewClient(remote.Config{BaseURL: cfg.Remote.BaseURL, Timeout: cfg.Remote.Timeout}, logger)
	}

	logger.Info("trainer opened",
		zap.Int("cards", cat.Len()),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Bool("sync_enabled", deps.Remote != nil),
	)
	return Assemble(deps, cfg, logger, opts...), nil
}

// Assemble wires an App from already opened dependencies
func Assemble(deps Dependencies, cfg *config.TrainerConfig, logger *zap.Logger, opts ...Option) *App {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		cfg:     cfg,
		catalog: deps.Catalog,
		cache:   deps.Cache,
		store:   store.NewEmpty(o.now()),
		logger:  logger,
	}
	a.reconciler = reconciler.New(a.store, deps.Remote, deps.Cache,
		reconciler.Config{BaseKey: cfg.Cache.BaseKey, Debounce: cfg.SaveDebounce},
		logger,
		reconciler.WithNoticeSink(a),
		reconciler.WithReauthRequester(a),
		reconciler.WithClock(o.now),
	)
	a.session = session.NewController(deps.Catalog, a.store, a.reconciler, session.Config{
		DailyNewLimit: cfg.DailyNewLimit,
		LapseMinutes:  cfg.LapseMinutes,
		LevelFilter:   cfg.LevelFilter,
		AutoplayAudio: cfg.AutoplayAudio,
	}, logger, session.WithClock(o.now))
	return a
}

// Start loads the progress of the configured learner and prepares the session queues
func (a *App) Start(ctx context.Context) reconciler.LoadResult {
	res := a.reconciler.Load(ctx, a.cfg.Learner.Identity())
	a.session.Reload()
	return res
}

// SwitchIdentity saves the current learner and loads the progress of another one
func (a *App) SwitchIdentity(ctx context.Context, identity models.Identity) reconciler.LoadResult {
	a.mu.Lock()
	a.reauthRequested = false
	a.mu.Unlock()

	res := a.reconciler.SwitchIdentity(ctx, identity)
	a.session.Reload()
	return res
}

// Reset erases all progress of the current learner
func (a *App) Reset(ctx context.Context) error {
	err := a.reconciler.Reset(ctx)
	a.session.Reload()
	return err
}

// Save writes the current progress immediately
func (a *App) Save(ctx context.Context) error {
	return a.reconciler.SaveNow(ctx)
}

func (a *App) Session() *session.Controller {
	return a.session
}

func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// History returns up to limit history entries, newest first
func (a *App) History(limit int) []models.HistoryEntry {
	return a.store.History(limit)
}

func (a *App) Identity() models.Identity {
	return a.reconciler.Identity()
}

// Notice returns the sync notice currently in effect
func (a *App) Notice() models.Notice {
	return a.reconciler.Notice()
}

// TakeNotices returns the notices raised since the previous call
func (a *App) TakeNotices() []models.Notice {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.notices
	a.notices = nil
	return out
}

// ReauthRequested reports whether the remote store rejected the learner credential
func (a *App) ReauthRequested() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reauthRequested
}

// Notify implements reconciler.NoticeSink
func (a *App) Notify(notice models.Notice) {
	a.logger.Info("sync notice", zap.String("kind", string(notice.Kind)), zap.String("message", notice.Message))
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notices = append(a.notices, notice)
}

// RequestReauthentication implements reconciler.ReauthRequester
func (a *App) RequestReauthentication(identity models.Identity) {
	a.logger.Warn("re-authentication requested", zap.String("learner_id", identity.ID))
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reauthRequested = true
}

// Close writes pending progress and releases the local cache
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.reconciler.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush progress: %w", err))
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

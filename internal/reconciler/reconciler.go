// Package reconciler keeps the review record store in sync with the local cache and the
// remote progress store.
//
// The store is the single authoritative copy. Loads pick a source by precedence and never
// fail; I/O errors are turned into notices and a local fallback. Saves are debounced and
// always write the local cache, then the remote store when the identity is authenticated.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vocabtrainer/backend/internal/models"
	"github.com/vocabtrainer/backend/internal/scheduler"
	"github.com/vocabtrainer/backend/internal/store"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a scheduled save is written
const DefaultDebounce = 400 * time.Millisecond

// RemoteStore is the interface that wraps the remote progress document operations.
//
// Get returns models.ErrNotFound when no document exists. Delete of a missing document
// succeeds. Every method returns models.ErrUnauthorized for a rejected credential and
// models.ErrTransport for other failures.
type RemoteStore interface {
	Get(ctx context.Context, identity models.Identity) (models.ProgressDocument, error)
	Put(ctx context.Context, identity models.Identity, doc models.ProgressDocument) error
	Delete(ctx context.Context, identity models.Identity) error
}

// LocalCache is the interface that wraps the local key-value persistence
type LocalCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// ReauthRequester asks the identity provider for a fresh credential
type ReauthRequester interface {
	RequestReauthentication(identity models.Identity)
}

// NoticeSink receives sync notices as they are raised
type NoticeSink interface {
	Notify(notice models.Notice)
}

// Source tells where a loaded document came from
type Source string

const (
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
	SourceMemory Source = "memory"
	SourceEmpty  Source = "empty"
)

// LoadResult describes the outcome of a load
type LoadResult struct {
	Source  Source
	Notices []models.Notice
	// Replayed counts the grades recorded while loading that were applied on top of the loaded document
	Replayed int
}

// Config holds the reconciler settings
type Config struct {
	BaseKey  string
	Debounce time.Duration
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithReauthRequester sets the collaborator notified on rejected credentials
func WithReauthRequester(reauth ReauthRequester) Option {
	return func(r *Reconciler) {
		r.reauth = reauth
	}
}

// WithNoticeSink sets the collaborator receiving notices
func WithNoticeSink(sink NoticeSink) Option {
	return func(r *Reconciler) {
		r.sink = sink
	}
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// Reconciler implements the load, save, reset and identity-switch protocols
type Reconciler struct {
	store   *store.Store
	remote  RemoteStore
	cache   LocalCache
	reauth  ReauthRequester
	sink    NoticeSink
	logger  *zap.Logger
	now     func() time.Time
	baseKey string

	mu       sync.Mutex
	identity models.Identity
	loaded   bool
	notice   models.Notice

	writer *pendingWriter
}

// New creates a reconciler. remote may be nil when no server is configured.
func New(st *store.Store, remote RemoteStore, cache LocalCache, cfg Config, logger *zap.Logger, opts ...Option) *Reconciler {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	r := &Reconciler{
		store:   st,
		remote:  remote,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
		baseKey: cfg.BaseKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.writer = newPendingWriter(cfg.Debounce, r.persist)
	return r
}

// Identity returns the identity of the loaded document
func (r *Reconciler) Identity() models.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.identity
}

// Notice returns the latest sync notice, zero when sync is healthy
func (r *Reconciler) Notice() models.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notice
}

// Load fills the store with the document of identity.
//
// An authenticated identity reads the remote store first. On failure the local cache is
// used, then the in-memory document when the same learner was loaded before, then an empty
// snapshot. A missing remote document falls back to the local cache or an empty snapshot.
// A pending identity and an anonymous learner read the local cache only. The loaded
// document is repaired and day-rolled before it replaces the store content; grades recorded
// meanwhile are replayed on top of it.
//
// Repair bounds the loaded history to models.PersistedHistoryLimit, not to the session view
// bound: the full history is written back on the next save, and the session reads only its
// newest models.SessionHistoryLimit entries.
func (r *Reconciler) Load(ctx context.Context, identity models.Identity) LoadResult {
	mark := r.store.BeginLoad()
	now := r.now()

	r.mu.Lock()
	var memory *models.ProgressDocument
	if r.loaded && !identity.IsZero() && r.identity.ID == identity.ID {
		doc := r.store.Document()
		memory = &doc
	}
	r.identity = identity
	r.notice = models.Notice{}
	r.mu.Unlock()

	key := identity.StorageKey(r.baseKey)
	res := LoadResult{}
	var doc models.ProgressDocument

	switch {
	case identity.IsZero():
		doc, res.Source = r.fallback(ctx, key, nil, now, &res)
	case identity.Pending():
		r.raise(&res, models.NoticeWaitingConfirmation, "waiting for sign-in confirmation, progress is kept locally")
		doc, res.Source = r.fallback(ctx, key, memory, now, &res)
	case r.remote == nil:
		r.raise(&res, models.NoticeConfigurationMissing, "no sync server configured, progress is kept locally")
		doc, res.Source = r.fallback(ctx, key, memory, now, &res)
	default:
		remoteDoc, err := r.remote.Get(ctx, identity)
		switch {
		case err == nil:
			doc, res.Source = remoteDoc, SourceRemote
		case errors.Is(err, models.ErrNotFound):
			r.raise(&res, models.NoticeSyncUnavailable, "sync unavailable, using local progress")
			doc, res.Source = r.fallback(ctx, key, nil, now, &res)
		default:
			r.logger.Warn("failed to load remote progress", zap.String("learner_id", identity.ID), zap.Error(err))
			r.remoteFailure(&res, identity, err)
			doc, res.Source = r.fallback(ctx, key, memory, now, &res)
		}
	}

	doc.Repair()
	scheduler.Normalize(&doc.Progress.Meta, now)

	if res.Source == SourceRemote {
		if err := r.writeLocal(ctx, key, doc); err != nil {
			r.logger.Warn("failed to mirror remote progress to local cache", zap.String("storage_key", key), zap.Error(err))
		}
	}

	res.Replayed = r.store.Merge(mark, doc)
	if res.Replayed > 0 {
		r.logger.Info("replayed grades recorded while loading", zap.String("storage_key", key), zap.Int("grades", res.Replayed))
	}

	r.mu.Lock()
	r.loaded = true
	r.mu.Unlock()

	r.logger.Info("progress loaded",
		zap.String("storage_key", key),
		zap.String("source", string(res.Source)),
		zap.Int("cards", len(doc.Progress.Cards)),
	)
	return res
}

// fallback reads the local cache, then memory, then returns an empty document
func (r *Reconciler) fallback(ctx context.Context, key string, memory *models.ProgressDocument, now time.Time, res *LoadResult) (models.ProgressDocument, Source) {
	if doc, ok := r.readLocal(ctx, key, res); ok {
		return doc, SourceCache
	}
	if memory != nil {
		return memory.Clone(), SourceMemory
	}
	return models.ProgressDocument{
		Progress: models.NewProgressSnapshot(scheduler.DayKey(now)),
		History:  []models.HistoryEntry{},
	}, SourceEmpty
}

// readLocal decodes the cached document. A corrupt entry is removed.
func (r *Reconciler) readLocal(ctx context.Context, key string, res *LoadResult) (models.ProgressDocument, bool) {
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("failed to read local progress", zap.String("storage_key", key), zap.Error(err))
		return models.ProgressDocument{}, false
	}
	if !ok {
		return models.ProgressDocument{}, false
	}

	doc, err := decodeDocument(data)
	if err != nil {
		r.logger.Warn("discarding corrupt local progress", zap.String("storage_key", key), zap.Error(err))
		r.raise(res, models.NoticeCorruptLocalState, "local progress was unreadable and has been reset")
		if err := r.cache.Remove(ctx, key); err != nil {
			r.logger.Warn("failed to remove corrupt local progress", zap.String("storage_key", key), zap.Error(err))
		}
		return models.ProgressDocument{}, false
	}
	return doc, true
}

func decodeDocument(data []byte) (models.ProgressDocument, error) {
	var doc models.ProgressDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.ProgressDocument{}, fmt.Errorf("%w: %v", models.ErrCorruptLocalState, err)
	}
	return doc, nil
}

func (r *Reconciler) writeLocal(ctx context.Context, key string, doc models.ProgressDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	return r.cache.Set(ctx, key, data)
}

// ScheduleSave queues a debounced save of the current document
func (r *Reconciler) ScheduleSave() {
	r.writer.schedule(r.currentJob())
}

// Flush writes a scheduled save immediately
func (r *Reconciler) Flush(ctx context.Context) error {
	return r.writer.flush(ctx)
}

// SaveNow writes the current document immediately, replacing any scheduled save
func (r *Reconciler) SaveNow(ctx context.Context) error {
	return r.writer.writeNow(ctx, r.currentJob())
}

func (r *Reconciler) currentJob() writeJob {
	return writeJob{identity: r.Identity(), doc: r.store.Document()}
}

// persist writes the local cache, then the remote store for an authenticated identity.
//
// A remote failure never prevents the local write. It raises a notice and is returned.
func (r *Reconciler) persist(ctx context.Context, job writeJob) error {
	key := job.identity.StorageKey(r.baseKey)
	var errs []error

	if err := r.writeLocal(ctx, key, job.doc); err != nil {
		r.raise(nil, models.NoticeSaveFailed, "could not save progress locally")
		errs = append(errs, fmt.Errorf("local save: %w", err))
	}

	if job.identity.Authenticated() && r.remote != nil {
		if err := r.remote.Put(ctx, job.identity, job.doc); err != nil {
			r.remoteFailure(nil, job.identity, err)
			errs = append(errs, fmt.Errorf("remote save: %w", err))
		} else {
			r.clearNoticeKind(models.NoticeServerUnreachable)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		r.logger.Warn("failed to save progress", zap.String("storage_key", key), zap.Error(err))
	} else {
		r.logger.Debug("progress saved", zap.String("storage_key", key), zap.Int("cards", len(job.doc.Progress.Cards)))
	}
	return err
}

// Reset deletes the stored documents of the current identity, empties the store and saves
// the empty document immediately.
func (r *Reconciler) Reset(ctx context.Context) error {
	identity := r.Identity()
	key := identity.StorageKey(r.baseKey)
	var errs []error

	r.writer.exclusive(func() {
		if identity.Authenticated() && r.remote != nil {
			if err := r.remote.Delete(ctx, identity); err != nil {
				r.remoteFailure(nil, identity, err)
				errs = append(errs, fmt.Errorf("remote delete: %w", err))
			}
		}
		if err := r.cache.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("local delete: %w", err))
		}
		r.store.Reset(r.now())
	})

	if err := r.SaveNow(ctx); err != nil {
		errs = append(errs, err)
	}

	r.logger.Info("progress reset", zap.String("storage_key", key))
	return errors.Join(errs...)
}

// SwitchIdentity saves the pending document of the current identity and loads the document
// of the new one. Documents of different learners are never merged: from the switch until the
// load ends the store rejects grades with models.ErrLoading.
func (r *Reconciler) SwitchIdentity(ctx context.Context, identity models.Identity) LoadResult {
	if err := r.Flush(ctx); err != nil {
		r.logger.Warn("failed to save progress before identity switch", zap.Error(err))
	}

	r.mu.Lock()
	previous := r.identity
	if previous.ID != identity.ID {
		r.loaded = false
	}
	r.mu.Unlock()

	if previous.ID != identity.ID {
		r.store.Fence(r.now())
	}
	return r.Load(ctx, identity)
}

// Close writes any scheduled save and stops the background writer
func (r *Reconciler) Close(ctx context.Context) error {
	return r.writer.close(ctx)
}

// remoteFailure raises the notice matching a remote error and requests re-authentication
// for a rejected credential
func (r *Reconciler) remoteFailure(res *LoadResult, identity models.Identity, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		r.raise(res, models.NoticeReauthenticate, "your session has expired, please sign in again")
		if r.reauth != nil {
			r.reauth.RequestReauthentication(identity)
		}
	case errors.Is(err, models.ErrNotFound):
		r.raise(res, models.NoticeSyncUnavailable, "sync unavailable, using local progress")
	default:
		r.raise(res, models.NoticeServerUnreachable, "could not reach the sync server, progress is kept locally")
	}
}

func (r *Reconciler) raise(res *LoadResult, kind models.NoticeKind, message string) {
	notice := models.Notice{Kind: kind, Message: message}
	r.mu.Lock()
	r.notice = notice
	r.mu.Unlock()
	if res != nil {
		res.Notices = append(res.Notices, notice)
	}
	if r.sink != nil {
		r.sink.Notify(notice)
	}
}

func (r *Reconciler) clearNoticeKind(kind models.NoticeKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.notice.Kind == kind {
		r.notice = models.Notice{}
	}
}

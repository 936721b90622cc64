package travel

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source supplies the workbook bytes for a load
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// ReloadHook is called after every reload attempt with the published snapshot
type ReloadHook func(ctx context.Context, snap *Snapshot, err error)

// ReloadStatus summarizes the reload history of a store
type ReloadStatus struct {
	LastAttempt time.Time `json:"last_attempt,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Attempts    int       `json:"attempts"`
	Failures    int       `json:"failures"`
}

// Store owns the current dataset. Readers get the published snapshot without
// locking; a reload builds a complete snapshot before swapping it in.
type Store struct {
	source       Source
	loader       *Loader
	logger       *slog.Logger
	keepLastGood bool

	current atomic.Pointer[Snapshot]
	group   singleflight.Group

	mu     sync.Mutex
	status ReloadStatus
	hooks  []ReloadHook
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithKeepLastGood keeps the previous dataset published when a reload fails,
// instead of replacing it with the NoData snapshot.
func WithKeepLastGood(keep bool) StoreOption {
	return func(s *Store) {
		s.keepLastGood = keep
	}
}

// WithStoreLogger sets the store logger
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store that starts out with no data until Reload is called
func NewStore(source Source, loader *Loader, opts ...StoreOption) *Store {
	s := &Store{
		source: source,
		loader: loader,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "travel_store"))
	if s.loader == nil {
		s.loader = NewLoader(s.logger)
	}

	name := ""
	if source != nil {
		name = source.Name()
	}
	s.current.Store(NoDataSnapshot(name, LoadReport{}, noData("dataset not loaded yet", nil)))
	return s
}

// Current returns the published snapshot. It is never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Status returns a copy of the reload history
func (s *Store) Status() ReloadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// OnReload registers a hook run after each reload
func (s *Store) OnReload(hook ReloadHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Reload rebuilds the dataset from the source. Concurrent calls share one load.
// The returned snapshot is the one published after the attempt.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, shared := s.group.Do("reload", func() (interface{}, error) {
		snap, err := s.reload(ctx)
		return snap, err
	})
	if shared {
		s.logger.DebugContext(ctx, "reload shared with concurrent caller")
	}
	return v.(*Snapshot), err
}

func (s *Store) reload(ctx context.Context) (*Snapshot, error) {
	snap, err := s.build(ctx)

	published := snap
	if err != nil && s.keepLastGood {
		if prev := s.Current(); !prev.NoData() {
			published = prev
			s.logger.WarnContext(ctx, "reload failed, keeping previous dataset",
				slog.String("error", err.Error()),
				slog.Int("trips", len(prev.Trips)))
		}
	}
	if published != s.Current() {
		s.current.Store(published)
	}

	s.mu.Lock()
	now := time.Now()
	s.status.Attempts++
	s.status.LastAttempt = now
	if err != nil {
		s.status.Failures++
		s.status.LastError = err.Error()
	} else {
		s.status.LastSuccess = now
		s.status.LastError = ""
	}
	hooks := append([]ReloadHook(nil), s.hooks...)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, published, err)
	}
	return published, err
}

func (s *Store) build(ctx context.Context) (*Snapshot, error) {
	if s.source == nil {
		err := noData("cannot load", ErrNoSource)
		return NoDataSnapshot("", LoadReport{}, err), err
	}

	rc, err := s.source.Open(ctx)
	if err != nil {
		err = noData("cannot open source", err)
		s.logger.ErrorContext(ctx, "failed to open source",
			slog.String("source", s.source.Name()),
			slog.String("error", err.Error()))
		return NoDataSnapshot(s.source.Name(), LoadReport{}, err), err
	}
	defer rc.Close()

	return s.loader.Load(ctx, rc, s.source.Name())
}

// Run reloads on every tick until ctx is done. A non-positive interval disables it.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "periodic reload enabled", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil {
				s.logger.WarnContext(ctx, "periodic reload failed", slog.String("error", err.Error()))
			}
		}
	}
}

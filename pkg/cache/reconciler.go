package cache

import (
	"github.com/rs/zerolog"
)

// Reconciler resolves invocations against a Store and persists the result
// of successful runs.
type Reconciler struct {
	Store  *Store
	Logger zerolog.Logger
}

func NewReconciler(store *Store, logger zerolog.Logger) *Reconciler {
	return &Reconciler{Store: store, Logger: logger}
}

// Resolve loads the snapshot for req.Kind when the cache is requested and
// resolves the effective configuration. It never touches the network, so
// conflicts surface before any request is made.
func (r *Reconciler) Resolve(req Request) (Config, error) {
	if !req.UseCache {
		return Resolve(req, nil, false)
	}
	snap, found, err := r.Store.Lookup(req.Kind)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Resolve(req, snap, found)
	if err != nil {
		return Config{}, err
	}
	r.Logger.Debug().Str("kind", string(req.Kind)).Str("cache_file", r.Store.Path()).Msg("Using cached configuration")
	return cfg, nil
}

// Persist saves cfg as the snapshot for its kind unless noSave is set. A
// failure is logged and returned as a *PersistError; callers treat it as
// advisory.
func (r *Reconciler) Persist(cfg Config, noSave bool) error {
	if noSave {
		r.Logger.Debug().Str("kind", string(cfg.Kind())).Msg("Skipping configuration save")
		return nil
	}
	if err := r.Store.Save(cfg.Kind(), cfg.Snapshot()); err != nil {
		perr := &PersistError{Path: r.Store.Path(), Err: err}
		r.Logger.Warn().Err(err).Str("cache_file", r.Store.Path()).Msg("Failed to save configuration")
		return perr
	}
	r.Logger.Debug().Str("kind", string(cfg.Kind())).Str("cache_file", r.Store.Path()).Msg("Saved configuration")
	return nil
}

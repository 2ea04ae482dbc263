package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/panacea-health/trials-etl/internal/etl"
	"github.com/panacea-health/trials-etl/internal/reconcile"
	"github.com/panacea-health/trials-etl/internal/registry"
	"github.com/panacea-health/trials-etl/internal/store"
	anthropicpkg "github.com/panacea-health/trials-etl/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "trials.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore validates the config for mode, opens the store, and migrates it.
// Callers should defer st.Close().
func openStore(ctx context.Context, mode string) (store.Store, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initRegistry() *registry.Client {
	return registry.NewClient(registry.Options{
		BaseURL:           cfg.Registry.BaseURL,
		UserAgent:         cfg.Registry.UserAgent,
		Timeout:           secs(cfg.Registry.TimeoutSecs),
		RequestsPerSecond: cfg.Registry.RequestsPerSecond,
	})
}

func initProcessor(st store.Store) etl.Processor {
	llm := anthropicpkg.NewClient(cfg.Anthropic.Key)
	rec := reconcile.NewReconciler(llm, cfg.Anthropic.HaikuModel)
	return reconcile.NewOrchestrator(st, rec)
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/startupbase/fundmatch/internal/catalog"
	"github.com/startupbase/fundmatch/internal/engine"
)

// openStore opens the configured catalog backend and runs migrations so
// commands can assume the schema exists.
func openStore(ctx context.Context) (catalog.Store, error) {
	var (
		store catalog.Store
		err   error
	)
	switch cfg.Store.Driver {
	case "postgres":
		store, err = catalog.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	case "sqlite":
		store, err = catalog.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func sectorGroups() (engine.SectorGroups, error) {
	if cfg.Engine.SectorGroupsFile == "" {
		return engine.DefaultSectorGroups(), nil
	}
	return engine.LoadSectorGroups(cfg.Engine.SectorGroupsFile)
}

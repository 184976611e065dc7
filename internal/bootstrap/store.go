package bootstrap

import (
	"fmt"

	"github.com/creamcroissant/v2mng/internal/config"
	"github.com/creamcroissant/v2mng/internal/migrations"
	"github.com/creamcroissant/v2mng/internal/repository"
	"github.com/creamcroissant/v2mng/internal/repository/file"
	"github.com/creamcroissant/v2mng/internal/repository/sqlite"
)

// OpenStore opens the descriptor store selected by store.driver.
func OpenStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Driver {
	case "", "file":
		return file.NewStore(cfg.StorePath()), nil
	case "sqlite":
		db, err := OpenSQLite(cfg.StorePath())
		if err != nil {
			return nil, err
		}
		if err := migrations.Up(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		return sqlite.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

package localstore

import (
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
	inmemstore "github.com/trezcool/masomo-certs/storage/localstore/inmem"
	"github.com/trezcool/masomo-certs/storage/localstore/sqlstore"
)

// Open returns the store of the configured engine, migrated and ready to use.
// close releases its resources.
func Open(conf *core.Config, logger core.Logger) (store certificate.Store, close func() error, err error) {
	switch conf.Storage.Engine {
	case core.StorageMemory:
		return inmemstore.New(conf.Storage.Quota), func() error { return nil }, nil

	case core.StorageSQLite, core.StoragePostgres:
		db, err := sqlstore.Open(conf.Storage.Engine, conf.Storage.DSN)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening local storage")
		}
		if err = sqlstore.Migrate(db, conf.Storage.Engine, logger); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlstore.New(db, conf.Storage.Quota), db.Close, nil
	}
	return nil, nil, errors.Errorf("unsupported storage engine %q", conf.Storage.Engine)
}

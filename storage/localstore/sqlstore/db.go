package sqlstore

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/fs"
)

// dialect settings per storage engine
var (
	driverNames = map[string]string{
		core.StorageSQLite:   "sqlite",
		core.StoragePostgres: "postgres",
	}
	gooseDialects = map[string]string{
		core.StorageSQLite:   "sqlite3",
		core.StoragePostgres: "postgres",
	}
)

// Open connects to the engine's database and waits for it to be ready.
func Open(engine, dsn string) (*sqlx.DB, error) {
	driver, ok := driverNames[engine]
	if !ok {
		return nil, errors.Errorf("unsupported storage engine %q", engine)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if engine == core.StorageSQLite {
		// a single writer; avoids SQLITE_BUSY between concurrent transactions
		db.SetMaxOpenConns(1)
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var pingAttempts = 30

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	for attempts := 1; attempts <= pingAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// gooseLogger routes migration output to a core.Logger.
type gooseLogger struct {
	logger core.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate applies the embedded migrations of the engine's dialect.
func Migrate(db *sqlx.DB, engine string, logger core.Logger) error {
	dialect, ok := gooseDialects[engine]
	if !ok {
		return errors.Errorf("unsupported storage engine %q", engine)
	}

	goose.SetBaseFS(appfs.FS)
	goose.SetLogger(gooseLogger{logger: logger})
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.Up(db.DB, path.Join("migrations", engine)); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

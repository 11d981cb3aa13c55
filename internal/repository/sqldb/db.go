package sqldb

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/config"
)

// database/sql driver names registered by pgx and modernc.
const (
	driverPgx    = "pgx"
	driverSQLite = "sqlite"
)

func init() {
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// NewDB opens a connection pool for the configured driver.
//
// SQLite is limited to one open connection so every transaction runs
// serialized against the file, matching the row-lock behavior of PostgreSQL.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlx.Connect(driverSQLite, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return db, nil
	case config.DriverPostgres:
		db, err := sqlx.Connect(driverPgx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.MaxOpen)
		db.SetMaxIdleConns(cfg.MaxIdle)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

func isPostgres(db *sqlx.DB) bool {
	return db.DriverName() == driverPgx
}

package sqlxdb

import (
	"context"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// uniqueViolation is the postgres error code raised on unique index conflicts.
const uniqueViolation = "23505"

// Open connects to the postgres database at url and waits for it to answer.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate applies every pending migration.
func Migrate(db *sqlx.DB) error {
	if err := goose.Up(db.DB, migrations, migrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// MigrateCommand runs a single migration command: up, up-by-one, up-to, down, down-to or redo.
// up-to and down-to take the target version.
func MigrateCommand(db *sqlx.DB, command string, version int64) error {
	var err error
	switch command {
	case "up":
		err = goose.Up(db.DB, migrations, migrationsDir)
	case "up-by-one":
		err = goose.UpByOne(db.DB, migrations, migrationsDir)
	case "up-to":
		err = goose.UpTo(db.DB, migrations, migrationsDir, version)
	case "down":
		err = goose.Down(db.DB, migrations, migrationsDir)
	case "down-to":
		err = goose.DownTo(db.DB, migrations, migrationsDir, version)
	case "redo":
		err = goose.Redo(db.DB, migrations, migrationsDir)
	default:
		return errors.Errorf("%q: no such command", command)
	}
	return errors.Wrapf(err, "migrate %s", command)
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

package data

import (
	"fmt"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/migrations"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// NewSqliteClient opens the embedded store at path and applies migrations.
func NewSqliteClient(path string) *sqlx.DB {
	db, err := OpenSqlite(path)
	if err != nil {
		slog.Error("Sqlite open failed", slog.String("path", path), slog.String("err", err.Error()))
		panic(err)
	}
	slog.Info("Sqlite connected and migrated", slog.String("path", path))
	return db
}

// OpenSqlite is NewSqliteClient returning the error instead of panicking.
func OpenSqlite(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// A single connection serializes writers and keeps transactions visible to every query.
	db.SetMaxOpenConns(1)

	if err = migrateSqlite(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func migrateSqlite(db *sqlx.DB) error {
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite.WithInstance: %w", err)
	}

	src, err := iofs.New(migrations.Sqlite, "sqlite")
	if err != nil {
		return fmt.Errorf("iofs.New: %w", err)
	}

	return runMigrations(src, "sqlite", driver)
}

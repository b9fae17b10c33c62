package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const migrationsTable = "migrations"

// ErrMigration wraps any error stopping MigrateUp.
var ErrMigration = errors.New("migration failed")

// Migration is used to hold the database key and function for creating the migration.
type Migration struct {
	Executor func(*gorm.DB) error
	Key      string
}

// Migrations lists the migrations the sessions backend depends on.
func Migrations() []Migration {
	return []Migration{
		{
			Key: "0001-create-sessions",
			Executor: func(tx *gorm.DB) error {
				return tx.Exec(`
					CREATE TABLE IF NOT EXISTS sessions (
						id text PRIMARY KEY,
						body jsonb NOT NULL,
						last_check timestamptz NOT NULL,
						updated_at timestamptz NOT NULL DEFAULT now()
					)
				`).Error
			},
		},
		{
			Key: "0002-index-sessions-last-check",
			Executor: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE INDEX IF NOT EXISTS sessions_last_check ON sessions (last_check)`).Error
			},
		},
	}
}

// MigrateUp runs, in order, each migration whose Key is not yet recorded,
// each in its own transaction.
func MigrateUp(db *gorm.DB, migrations []Migration) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("%w: creating %s table: %s", ErrMigration, migrationsTable, err)
	}

	ran, err := ranMigrations(db)
	if err != nil {
		return fmt.Errorf("%w: fetching ran migrations: %s", ErrMigration, err)
	}

	for _, m := range migrations {
		if ran[m.Key] {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Executor(tx); err != nil {
				return err
			}

			return tx.Exec(`INSERT INTO migrations (key, ran_at) VALUES (?, ?)`, m.Key, time.Now().Unix()).Error
		})
		if err != nil {
			return fmt.Errorf("%w: %s: %s", ErrMigration, m.Key, err)
		}

		ran[m.Key] = true
	}

	return nil
}

func ensureMigrationsTable(db *gorm.DB) error {
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			ran_at bigint,
			key text,
			CONSTRAINT migrations_key UNIQUE (key)
		)
	`).Error
}

func ranMigrations(db *gorm.DB) (map[string]bool, error) {
	var keys []string
	if err := db.Table(migrationsTable).Pluck("key", &keys).Error; err != nil {
		return nil, err
	}

	ran := make(map[string]bool, len(keys))
	for _, k := range keys {
		ran[k] = true
	}

	return ran, nil
}

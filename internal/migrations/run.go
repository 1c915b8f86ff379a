// Package migrations применяет SQL-миграции схемы при старте сервиса.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// DefaultPath — каталог миграций относительно рабочей директории сервиса.
const DefaultPath = "./migrations"

// Run накатывает все неприменённые миграции из каталога path.
// Повторный запуск на актуальной схеме не является ошибкой.
func Run(db *sql.DB, path string) error {
	const op = "migrations.Run"

	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://"+path,
		"pgx_v5",
		driver,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func getTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	// образ с предустановленным расширением vector
	pgContainer, err := postgres.Run(ctx,
		"pgvector/pgvector:pg15",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	cleanup := func() {
		_ = db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)
	return filepath.Join(projectRoot, "migrations")
}

func TestRunMigrations(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	err := Run(db, getMigrationsPath(t))
	require.NoError(t, err)

	tableExists := func(name string) bool {
		var exists bool
		err := db.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)
		`, name).Scan(&exists)
		require.NoError(t, err)
		return exists
	}

	for _, table := range []string{
		"companies", "users", "invitations", "verification_tokens",
		"chatbot_settings", "projects", "websites", "faqs",
		"uploaded_files", "knowledge_chunks", "conversations", "notifications",
	} {
		require.True(t, tableExists(table), "Table %q should exist", table)
	}

	var exists bool
	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'users'
			AND indexname = 'idx_users_trial_end'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "Index idx_users_trial_end should exist")
}

func TestMigrationIdempotency(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	migrationsPath := getMigrationsPath(t)

	err := Run(db, migrationsPath)
	require.NoError(t, err)

	// повторный запуск не должен падать
	err = Run(db, migrationsPath)
	require.NoError(t, err)
}

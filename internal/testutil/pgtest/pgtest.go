// Package pgtest connects tests to a real Postgres named by SLOTKEEPER_TEST_DATABASE_URL.
package pgtest

//nolint:revive
import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"slotkeeper/infras/postgres"
	slotModel "slotkeeper/internal/domains/slot/model"
)

const EnvDatabaseURL = "SLOTKEEPER_TEST_DATABASE_URL"

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)

	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations", "postgres")
}

// Connect migrates the database up, empties the booking tables and returns a connection
// whose read and write pools share one database. The test is skipped when the variable is unset.
func Connect(t *testing.T) *postgres.Connection {
	t.Helper()

	url := os.Getenv(EnvDatabaseURL)
	if url == "" {
		t.Skipf("%s not set", EnvDatabaseURL)
	}

	mig, err := migrate.New("file://"+migrationsDir(), url)
	require.NoError(t, err)

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	srcErr, dbErr := mig.Close()
	require.NoError(t, srcErr)
	require.NoError(t, dbErr)

	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`TRUNCATE idempotency_keys, appointments, reservations, slot_templates`)
	require.NoError(t, err)

	return &postgres.Connection{Read: db, Write: db}
}

// SeedTemplates inserts slot templates.
func SeedTemplates(t *testing.T, conn *postgres.Connection, templates ...slotModel.SlotTemplate) {
	t.Helper()

	for _, template := range templates {
		_, err := conn.Write.NamedExec(`INSERT INTO slot_templates
			(id, unit_id, service_id, resource_id, weekday, start_time, end_time, slot_duration_minutes, buffer_minutes, capacity_per_slot)
			VALUES (:id, :unit_id, :service_id, :resource_id, :weekday, :start_time, :end_time, :slot_duration_minutes, :buffer_minutes, :capacity_per_slot)`,
			template)
		require.NoError(t, err)
	}
}

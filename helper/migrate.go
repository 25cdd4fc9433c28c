package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"slotkeeper/config"
	"slotkeeper/infras/postgres"
)

const (
	ActionUp     = "up"
	ActionStepUp = "step-up"
	ActionDown   = "down"
	ActionDrop   = "drop"

	migrationsSource = "file://migrations/postgres"
)

var ErrUnknownAction = errors.New("unknown migration action")

// DatabaseURL builds the migrate URL for the write database.
func DatabaseURL(config *config.Config) string {
	query := url.Values{}

	if config.DB.Postgres.MigrationTable != "" {
		query.Set("x-migrations-table", config.DB.Postgres.MigrationTable)
	}

	return postgres.DSN(config, config.DB.Postgres.Write, query)
}

var actions = map[string]struct {
	run  func(mig *migrate.Migrate) error
	done string
}{
	ActionUp:     {run: func(mig *migrate.Migrate) error { return mig.Up() }, done: "Database migrations completed successfully"},
	ActionStepUp: {run: func(mig *migrate.Migrate) error { return mig.Steps(1) }, done: "Database migrated one step up"},
	ActionDown:   {run: func(mig *migrate.Migrate) error { return mig.Steps(-1) }, done: "Database migrations rolled back one step"},
	ActionDrop:   {run: func(mig *migrate.Migrate) error { return mig.Down() }, done: "Database migrations rolled back successfully"},
}

// Runner applies one migration action to the write database. An already current schema is not an error.
func Runner(config *config.Config, action string) error {
	step, ok := actions[action]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	mig, err := migrate.New(migrationsSource, DatabaseURL(config))
	if err != nil {
		return fmt.Errorf("error creating migrate instance: %w", err)
	}

	defer func() {
		if srcErr, dbErr := mig.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("failed to close migrate instance")
		}
	}()

	if err := step.run(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running %s migration: %w", action, err)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("error reading migration version: %w", err)
	}

	log.Info().Uint("version", version).Bool("dirty", dirty).Msg(step.done)

	return nil
}

func Up(config *config.Config) error {
	return Runner(config, ActionUp)
}

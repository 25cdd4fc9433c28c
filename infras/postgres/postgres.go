package postgres

//nolint:revive
import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"slotkeeper/config"
)

const driverName = "postgres"

// Connection holds the read replica and primary pools. Anything that must observe its own
// writes (seat counting inside a booking transaction) goes through Write.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

// Close releases both pools.
func (c *Connection) Close() error {
	var errs []error

	for _, db := range []*sqlx.DB{c.Read, c.Write} {
		if db == nil {
			continue
		}

		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func New(config *config.Config) (*Connection, func(), error) {
	ctx := context.Background()

	write, err := connect(ctx, config, "write", config.DB.Postgres.Write)
	if err != nil {
		return nil, nil, err
	}

	read, err := connect(ctx, config, "read", config.DB.Postgres.Read)
	if err != nil {
		_ = write.Close()

		return nil, nil, err
	}

	conn := &Connection{Read: read, Write: write}

	cleanup := func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connections")
		}
	}

	return conn, cleanup, nil
}

// DatabaseName applies the configured environment prefix.
func DatabaseName(config *config.Config, baseName string) string {
	return config.DB.Postgres.Prefix + baseName
}

// DSN renders endpoint as a postgres URL. Credentials are escaped.
func DSN(config *config.Config, endpoint config.PostgresEndpoint, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}

	if params.Get("sslmode") == "" && endpoint.SSLMode != "" {
		params.Set("sslmode", endpoint.SSLMode)
	}

	dsn := url.URL{
		Scheme:   driverName,
		User:     url.UserPassword(endpoint.Username, endpoint.Password),
		Host:     net.JoinHostPort(endpoint.Host, endpoint.Port),
		Path:     DatabaseName(config, endpoint.Name),
		RawQuery: params.Encode(),
	}

	return dsn.String()
}

func connect(ctx context.Context, config *config.Config, name string, endpoint config.PostgresEndpoint) (*sqlx.DB, error) {
	settings := config.DB.Postgres
	dbName := DatabaseName(config, endpoint.Name)
	attempt := 0

	db, err := backoff.Retry(ctx, func() (*sqlx.DB, error) {
		attempt++

		return sqlx.ConnectContext(ctx, driverName, DSN(config, endpoint, nil))
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(time.Duration(settings.RetryWaitTime)*time.Second)),
		backoff.WithMaxTries(uint(max(settings.MaxRetry, 1))), //nolint:gosec
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Error().
				Err(err).
				Str("name", name).
				Str("host", endpoint.Host).
				Str("dbName", dbName).
				Int("attempt", attempt).
				Dur("retryIn", wait).
				Msg("Failed connecting to database, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database %s: %w", name, dbName, err)
	}

	db.SetMaxOpenConns(settings.MaxOpenConns)
	db.SetMaxIdleConns(settings.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(settings.ConnMaxLifetimeSeconds) * time.Second)

	log.Info().
		Str("name", name).
		Str("host", endpoint.Host).
		Str("port", endpoint.Port).
		Str("dbName", dbName).
		Msg("Connected to database")

	return db, nil
}

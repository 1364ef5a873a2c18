// Package postgresdb provides a PostgreSQL-based implementation of the storage contract.
// The schema is managed by goose migrations applied on start.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type initOptions struct {
	DBPreReset bool
}

type InitOption func(*initOptions)

// WithDBPreReset enables or disables resetting the database schema before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w",
				err,
			)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.UpContext(ctx, result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.UpContext()` calling: %w",
				err,
			)
	}

	return result, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}

// validID reports whether id can be compared against a UUID column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func splitIDs(aggregated sql.NullString) []string {
	if !aggregated.Valid || aggregated.String == "" {
		return []string{}
	}
	return strings.Split(aggregated.String, ",")
}

func (db *PostgresDB) count(ctx context.Context, table string) (int64, error) {
	var count int64
	err := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/count(): error while `Scan()` calling: %w", err)
	}
	return count, nil
}

func (db *PostgresDB) CountListings(ctx context.Context) (int64, error) {
	return db.count(ctx, "listings")
}

func (db *PostgresDB) CountReviews(ctx context.Context) (int64, error) {
	return db.count(ctx, "reviews")
}

func (db *PostgresDB) CountUsers(ctx context.Context) (int64, error) {
	return db.count(ctx, "users")
}

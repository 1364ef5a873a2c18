package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

func (db *PostgresDB) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO sessions (id, data, expires_at, touched_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE
				SET
					data = EXCLUDED.data,
					expires_at = EXCLUDED.expires_at,
					touched_at = EXCLUDED.touched_at
		`,
		record.ID,
		record.Data,
		record.ExpiresAt,
		record.TouchedAt,
	)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/sessions.go/SaveSession(): error while `ExecContext()` calling: %w", err)
	}

	return nil
}

func (db *PostgresDB) FindSession(ctx context.Context, id string) (*models.SessionRecord, bool, error) {
	record := &models.SessionRecord{}
	err := db.database.QueryRowContext(
		ctx,
		`SELECT id, data, expires_at, touched_at FROM sessions WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&record.ID, &record.Data, &record.ExpiresAt, &record.TouchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/postgresdb/sessions.go/FindSession(): error while `Scan()` calling: %w", err)
	}

	return record, true, nil
}

func (db *PostgresDB) TouchSession(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := db.database.ExecContext(
		ctx,
		`UPDATE sessions SET expires_at = $2, touched_at = now() WHERE id = $1`,
		id,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/sessions.go/TouchSession(): error while `ExecContext()` calling: %w", err)
	}

	return nil
}

func (db *PostgresDB) DeleteSession(ctx context.Context, id string) error {
	return deleteByID(ctx, db.database, "sessions", id)
}

func (db *PostgresDB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.database.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("in internal/db/postgresdb/sessions.go/DeleteExpiredSessions(): error while `ExecContext()` calling: %w", err)
	}

	return result.RowsAffected()
}

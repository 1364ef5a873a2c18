package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

func (db *PostgresDB) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	id := uuid.NewString()
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, $4)`,
		id,
		usr.Username,
		usr.Email,
		usr.PasswordHash,
	)
	if isUniqueViolation(err) {
		return "", models.ErrUserExists
	}
	if err != nil {
		return "", fmt.Errorf("in internal/db/postgresdb/users.go/CreateUser(): error while `ExecContext()` calling: %w", err)
	}

	return id, nil
}

func (db *PostgresDB) findUser(ctx context.Context, column, value string) (*models.User, bool, error) {
	usr := &models.User{}
	err := db.database.QueryRowContext(
		ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE `+column+` = $1`,
		value,
	).Scan(&usr.ID, &usr.Username, &usr.Email, &usr.PasswordHash, &usr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/postgresdb/users.go/findUser(): error while `Scan()` calling: %w", err)
	}

	return usr, true, nil
}

func (db *PostgresDB) FindUserByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	return db.findUser(ctx, "username", username)
}

func (db *PostgresDB) FindUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	return db.findUser(ctx, "id", id)
}

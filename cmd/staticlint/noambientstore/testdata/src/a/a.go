package a

import (
	"context"
	"database/sql"
)

var theDB *sql.DB // want "package-level variable theDB holds a store handle"

var (
	dsn       = "postgres://localhost/wanderlust"
	conn      *sql.Conn // want "package-level variable conn holds a store handle"
	_         *sql.DB
	txOptions sql.TxOptions
)

type app struct {
	db *sql.DB
}

func newApp(ctx context.Context) (*app, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	_ = txOptions
	return &app{db: db}, db.PingContext(ctx)
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS kv (
	ns         TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      BYTEA       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (ns, key)
)`

type PG struct{ DB *sql.DB }

func NewPG(dsn string) (*PG, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := db.Exec(pgSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PG{DB: db}, nil
}

func (p *PG) Get(ctx context.Context, ns, key string) ([]byte, bool, error) {
	var v []byte
	err := p.DB.QueryRowContext(ctx, `SELECT value FROM kv WHERE ns=$1 AND key=$2`, ns, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (p *PG) Put(ctx context.Context, ns, key string, value []byte) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO kv (ns, key, value, updated_at) VALUES ($1,$2,$3,now())
		ON CONFLICT (ns, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		ns, key, value)
	return err
}

func (p *PG) Delete(ctx context.Context, ns, key string) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM kv WHERE ns=$1 AND key=$2`, ns, key)
	return err
}

func (p *PG) Close() error { return p.DB.Close() }

func DSN(host string, port int, user, pass, db string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", user, pass, host, port, db)
}

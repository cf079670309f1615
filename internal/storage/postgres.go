package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"le-palanka/internal/database"
)

// PostgresStore persists values as JSONB rows in local_storage
type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRow(ctx, database.GetLocalStorageSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

func (p *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	return p.db.Exec(ctx, database.UpsertLocalStorageSQL, key, string(value))
}

func (p *PostgresStore) Close() error {
	p.db.Close()
	return nil
}

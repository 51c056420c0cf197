package postgres

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/portal-client/internal/session"
)

const tableEntries = "session_entries"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repository implements the session.Repository interface using PostgreSQL
type Repository struct {
	db        *pgxpool.Pool
	namespace string
}

var _ session.Repository = (*Repository)(nil)

// Get retrieves the value stored under key
func (repo *Repository) Get(ctx context.Context, key string) (string, error) {
	sql, values, err := psql.Select("value").
		From(tableEntries).
		Where(squirrel.Eq{"namespace": repo.namespace, "key": key}).
		ToSql()
	if err != nil {
		return "", err
	}

	var value string
	if err := repo.db.QueryRow(ctx, sql, values...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, overwriting any previous value
func (repo *Repository) Set(ctx context.Context, key, value string) error {
	sql, values, err := psql.Insert(tableEntries).
		Columns("namespace", "key", "value").
		Values(repo.namespace, key, value).
		Suffix("ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return err
	}
	_, err = repo.db.Exec(ctx, sql, values...)
	return err
}

// Remove deletes key
func (repo *Repository) Remove(ctx context.Context, key string) error {
	sql, values, err := psql.Delete(tableEntries).
		Where(squirrel.Eq{"namespace": repo.namespace, "key": key}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = repo.db.Exec(ctx, sql, values...)
	return err
}

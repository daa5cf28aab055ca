// Package storage keeps the shop state in PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DBPool is the part of [*pgxpool.Pool] the repositories use.
type DBPool interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Pool struct {
	*pgxpool.Pool
}

func NewPool(ctx context.Context, dsn string) (Pool, error) {
	const op = "NewPool"
	log := slog.With("op", op)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return Pool{}, fmt.Errorf("%s: %w", op, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return Pool{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return Pool{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}
	log.Info("database is available")
	return Pool{pool}, nil
}

func (p Pool) Close() {
	const op = "Pool.Close"
	log := slog.With("op", op)

	log.Info("closing database pool...")
	p.Pool.Close()
	log.Info("database pool is closed")
}

// withTx commits when fn succeeds and rolls back otherwise.
func withTx(
	ctx context.Context, db DBPool, fn func(tx pgx.Tx) error,
) (txErr error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	defer func() {
		if txErr == nil {
			if err := tx.Commit(ctx); err != nil {
				txErr = fmt.Errorf("failed to commit: %w", err)
			}
			return
		}

		if err := tx.Rollback(ctx); err != nil {
			slog.Error("failed to rollback tx", "err", err)
		}
	}()

	return fn(tx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Money travels as text so NUMERIC never passes through a float.
func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func collectIDs[T any](vs []T, id func(T) string) []string {
	ids := make([]string, len(vs))
	for i, v := range vs {
		ids[i] = id(v)
	}
	return ids
}

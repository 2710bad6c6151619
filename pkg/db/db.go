package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aelin/pkg/config"
)

// ErrNotFound is returned by repositories when a row does not exist or is not visible to the caller.
var ErrNotFound = errors.New("not found")

// Open connects the draft and NFT repositories. The API takes DATABASE_URL when set
// and otherwise builds a URL from the DB_* variables used by the local compose setup.
func Open(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pcfg, err := poolConfig(poolURL(cfg))
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// poolConfig switches to the simple protocol when DATABASE_URL points at a
// transaction-mode pooler (pgbouncer=true), which cannot keep prepared statements
// between transactions.
func poolConfig(connString string) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if strings.Contains(strings.ToLower(connString), "pgbouncer=true") {
		pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
		pcfg.ConnConfig.StatementCacheCapacity = 0
		pcfg.ConnConfig.DescriptionCacheCapacity = 0
	}
	return pcfg, nil
}

func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// NotFound maps pgx.ErrNoRows to ErrNotFound and passes other errors through.
func NotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func poolURL(cfg config.Config) string {
	if u := strings.TrimSpace(cfg.DatabaseURL); u != "" {
		return u
	}
	return localURL(cfg.DB)
}

// migrateURL prefers DIRECT_URL: golang-migrate holds a session advisory lock
// that a transaction pooler would hand to another client.
func migrateURL(cfg config.Config) string {
	if u := strings.TrimSpace(cfg.DirectURL); u != "" {
		return u
	}
	return poolURL(cfg)
}

func localURL(cfg config.DBConfig) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}

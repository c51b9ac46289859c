package requests

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"abstagsync/internal/config"
	"abstagsync/internal/services"
)

// PostgresSource reads rows over a direct connection to the ReadMeABook
// database.
type PostgresSource struct {
	dsn     string
	timeout time.Duration
}

// NewPostgresSource constructs a source from the readmeabook config section.
func NewPostgresSource(cfg *config.Config) *PostgresSource {
	return &PostgresSource{dsn: cfg.ReadMeABook.DSN, timeout: cfg.QueryTimeout()}
}

// Name identifies the source in logs and errors.
func (s *PostgresSource) Name() string { return "postgres" }

// Rows opens a single-connection pool, runs the query, and closes the pool.
func (s *PostgresSource) Rows(ctx context.Context) ([]Row, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	poolCfg, err := pgxpool.ParseConfig(s.dsn)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "requests", "parse dsn", "", err)
	}
	poolCfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "requests", "connect", "", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, postgresQuery, ActionableStatuses)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "requests", "query", "", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Row, error) {
		var row Row
		if err := r.Scan(&row.ASIN, &row.Email, &row.BackupName); err != nil {
			return Row{}, fmt.Errorf("scan row: %w", err)
		}
		return row, nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "requests", "read rows", "", err)
	}
	return out, nil
}

// NewSource picks the source configured in readmeabook.source.
func NewSource(cfg *config.Config) Source {
	if cfg.ReadMeABook.Source == config.SourcePostgres {
		return NewPostgresSource(cfg)
	}
	return NewDockerSource(cfg)
}

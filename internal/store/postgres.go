package store

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// PostgresConfig configures the connection pool.
type PostgresConfig struct {
	DSN             string
	Schema          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Postgres executes queries through the pgx stdlib driver.
type Postgres struct {
	db     *sqlx.DB
	schema string
}

// OpenPostgres connects, sizes the pool and verifies the connection.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := sqlx.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Info().Str("schema", schemaOrDefault(cfg.Schema)).Msg("postgres store connected")
	return NewPostgres(db, cfg.Schema), nil
}

// NewPostgres wraps an existing handle.
func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	return &Postgres{db: db, schema: schemaOrDefault(schema)}
}

func schemaOrDefault(s string) string {
	if s == "" {
		return "public"
	}
	return s
}

func (p *Postgres) Select(ctx context.Context, q Query) ([]Row, error) {
	query, args, err := BuildSelect(p.schema, q)
	if err != nil {
		return nil, err
	}
	return p.query(ctx, query, args)
}

func (p *Postgres) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	query, args, err := BuildInsert(p.schema, table, rows)
	if err != nil {
		return nil, err
	}
	return p.query(ctx, query, args)
}

func (p *Postgres) Update(ctx context.Context, table string, values Row, where []Predicate) ([]Row, error) {
	query, args, err := BuildUpdate(p.schema, table, values, where)
	if err != nil {
		return nil, err
	}
	return p.query(ctx, query, args)
}

func (p *Postgres) Delete(ctx context.Context, table string, where []Predicate) ([]Row, error) {
	query, args, err := BuildDelete(p.schema, table, where)
	if err != nil {
		return nil, err
	}
	return p.query(ctx, query, args)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) query(ctx context.Context, query string, args []any) ([]Row, error) {
	start := time.Now()
	rows, err := p.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	out := make([]Row, 0)
	for rows.Next() {
		row := make(Row)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for k, v := range row {
			// text columns may surface as raw bytes depending on type oid
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	log.Debug().
		Str("sql", query).
		Int("rows", len(out)).
		Dur("duration", time.Since(start)).
		Msg("store query")
	return out, nil
}

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is the subset of pgxpool.Pool used for writes.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresRegistrar writes directly to Postgres.
type PostgresRegistrar struct {
	db           Execer
	pool         *pgxpool.Pool
	objectsTable string
	linksTable   string
	cacheControl string
}

// OpenPostgres connects a pool and returns a registrar over it.
func OpenPostgres(ctx context.Context, databaseURL, objectsTable, linksTable, cacheControl string) (*PostgresRegistrar, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	reg, err := NewPostgresRegistrar(pool, objectsTable, linksTable)
	if err != nil {
		pool.Close()
		return nil, err
	}
	reg.pool = pool
	reg.cacheControl = cacheControl
	return reg, nil
}

// NewPostgresRegistrar wraps an existing connection. Empty table names
// default to "storage.objects" and "card_language_links".
func NewPostgresRegistrar(db Execer, objectsTable, linksTable string) (*PostgresRegistrar, error) {
	if objectsTable == "" {
		objectsTable = "storage.objects"
	}
	if linksTable == "" {
		linksTable = "card_language_links"
	}
	for _, t := range []string{objectsTable, linksTable} {
		if !tableName.MatchString(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
	}
	return &PostgresRegistrar{db: db, objectsTable: objectsTable, linksTable: linksTable}, nil
}

// Close releases the pool when the registrar owns one.
func (p *PostgresRegistrar) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Ping checks the connection.
func (p *PostgresRegistrar) Ping(ctx context.Context) error {
	if p.pool == nil {
		return nil
	}
	return p.pool.Ping(ctx)
}

// Upsert implements Registrar. It writes the same rows as the PostgREST
// registrar, directly over SQL.
func (p *PostgresRegistrar) Upsert(ctx context.Context, rec Record) error {
	meta, err := json.Marshal(objectMetadata{Size: rec.Bytes, Mimetype: rec.ContentType, CacheControl: p.cacheControl})
	if err != nil {
		return fmt.Errorf("encode object metadata: %w", err)
	}
	objectSQL := `INSERT INTO ` + p.objectsTable + ` (bucket_id, name, metadata)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (bucket_id, name) DO UPDATE SET metadata = EXCLUDED.metadata`
	if _, err := p.db.Exec(ctx, objectSQL, rec.Bucket, rec.Key, string(meta)); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("insert %s: %w", p.objectsTable, err)
	}
	if rec.Language == "" {
		return nil
	}
	linkSQL := `INSERT INTO ` + p.linksTable + ` (synthetic_product_id, language_code) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := p.db.Exec(ctx, linkSQL, int64(rec.Target), rec.Language); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("insert %s: %w", p.linksTable, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"
)

// resultSchema mirrors the tables the SQL-backed result sources read. Both
// the primary and secondary store layouts are covered; tests seed only the
// tables they need.
const resultSchema = `
CREATE TABLE IF NOT EXISTS institutes (
	institute_code TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	district       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS students (
	roll_number     TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	regulation_year INT  NOT NULL,
	program_name    TEXT NOT NULL,
	institute_code  TEXT NOT NULL REFERENCES institutes (institute_code)
);

CREATE TABLE IF NOT EXISTS gpa_records (
	id           SERIAL PRIMARY KEY,
	roll_number  TEXT NOT NULL,
	semester     INT  NOT NULL,
	gpa          TEXT,
	ref_subjects TEXT[] NOT NULL DEFAULT '{}',
	is_reference BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cgpa_records (
	id          SERIAL PRIMARY KEY,
	roll_number TEXT NOT NULL,
	cgpa        DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresContainer wraps a testcontainers Postgres instance with the result
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("resultgate"),
		tcpostgres.WithUsername("resultgate"),
		tcpostgres.WithPassword("resultgate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, resultSchema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply result schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables clears the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	_, err := p.DB.ExecContext(ctx, stmt)
	return err
}

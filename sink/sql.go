package sink

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/tbxark/loanagent/types"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLSink inserts one loan_applications row per record. The record is kept whole
// in a JSONB column so catalog changes need no schema change.
type SQLSink struct {
	DB      *sql.DB
	Catalog string
	now     func() time.Time
	newID   func() string
}

func NewSQLSink(db *sql.DB, catalog string) *SQLSink {
	return &SQLSink{
		DB:      db,
		Catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// OpenPostgres opens a pgx backed pool and checks connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(2 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded goose migrations.
func (s *SQLSink) Migrate(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("sql sink has no database")
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.DB, "migrations")
}

func (s *SQLSink) Append(ctx context.Context, rec *types.Record) error {
	if s.DB == nil {
		return errors.New("sql sink has no database")
	}
	payload, err := sonic.ConfigStd.Marshal(rec.Values())
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	const query = `
INSERT INTO loan_applications (id, catalog, record, completed_at)
VALUES ($1, $2, $3, $4)`
	if _, err := s.DB.ExecContext(ctx, query, s.newID(), s.Catalog, string(payload), s.now()); err != nil {
		return fmt.Errorf("insert loan application: %w", err)
	}
	return nil
}

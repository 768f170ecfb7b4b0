package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/textile-storefront/internal/config"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// The same statements run on Postgres and SQLite.
const (
	createSlotsTable = `
		CREATE TABLE IF NOT EXISTS kv_slots (
			slot_key   TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`

	selectSlot = `SELECT payload FROM kv_slots WHERE slot_key = $1`

	upsertSlot = `
		INSERT INTO kv_slots (slot_key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slot_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	deleteSlot = `DELETE FROM kv_slots WHERE slot_key = $1`
)

type sqlStore struct {
	DB *sql.DB
}

// NewSQLStore wraps an open database whose kv_slots table already exists.
func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{DB: db}
}

func OpenPostgres(cfg *config.Database) (*sql.DB, error) {

	db, err := otelsql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("✅ Connected to Postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Name))
	return db, nil
}

func OpenSQLite(cfg *config.SQLite) (*sql.DB, error) {

	db, err := otelsql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("✅ Opened SQLite slot store", slog.String("path", cfg.Path))
	return db, nil
}

func prepare(db *sql.DB) error {
	ctx, cancel := utils.WithDBTimeout(context.Background())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return EnsureSchema(ctx, db)
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createSlotsTable); err != nil {
		return fmt.Errorf("failed to create kv_slots table: %w", err)
	}

	return nil
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var payload string

	err := s.DB.QueryRowContext(dbCtx, selectSlot, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying slot %s: %w", key, err)
	}

	return []byte(payload), true, nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := s.DB.ExecContext(dbCtx, upsertSlot, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}

	return nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := s.DB.ExecContext(dbCtx, deleteSlot, key); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}

	return nil
}

func (s *sqlStore) Close() error {
	return s.DB.Close()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const (
	tablePrefix = "skolmaten_"
)

type PostgresStore struct {
	db  *sql.DB
	ctx context.Context
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		ctx: ctx,
	}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sevents (
			id SERIAL PRIMARY KEY,
			event TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`, tablePrefix),

		// one row per source, replaced on every cycle
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %smenu_snapshots (
			slug TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`, tablePrefix),
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(s.ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

func (s *PostgresStore) AddEvent(event string) error {
	query := fmt.Sprintf("INSERT INTO %sevents (event) VALUES ($1)", tablePrefix)
	if _, err := s.db.ExecContext(s.ctx, query, event); err != nil {
		return err
	}

	deleteQuery := fmt.Sprintf(`
		DELETE FROM %sevents
		WHERE id NOT IN (
			SELECT id FROM %sevents ORDER BY id DESC LIMIT %d
		)
	`, tablePrefix, tablePrefix, maxEvents)
	_, err := s.db.ExecContext(s.ctx, deleteQuery)
	return err
}

func (s *PostgresStore) GetEvents() ([]string, error) {
	query := fmt.Sprintf("SELECT event FROM %sevents ORDER BY id ASC", tablePrefix)
	rows, err := s.db.QueryContext(s.ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []string
	for rows.Next() {
		var event string
		if err := rows.Scan(&event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (s *PostgresStore) SetSnapshot(snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %smenu_snapshots (slug, snapshot, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET snapshot = $2, updated_at = $3
	`, tablePrefix)
	_, err = s.db.ExecContext(s.ctx, query, snapshot.Slug, string(data), snapshot.UpdatedAt)
	return err
}

func (s *PostgresStore) GetSnapshot(slug string) (Snapshot, error) {
	var data string
	query := fmt.Sprintf("SELECT snapshot FROM %smenu_snapshots WHERE slug = $1", tablePrefix)
	err := s.db.QueryRowContext(s.ctx, query, slug).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *PostgresStore) GetSnapshots() ([]Snapshot, error) {
	query := fmt.Sprintf("SELECT snapshot FROM %smenu_snapshots ORDER BY slug ASC", tablePrefix)
	rows, err := s.db.QueryContext(s.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshots := []Snapshot{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var snapshot Snapshot
		if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

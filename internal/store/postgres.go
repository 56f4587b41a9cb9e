// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikokadi/kadi/internal/kadi"
)

// Postgres persists rooms as JSONB documents, one row per room. Every field
// of the aggregate round-trips through its JSON encoding.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres builds the pool from the standard environment variables
// (POSTGRES_USER, POSTGRES_PASSWORD, PG_HOST, PG_PORT, PG_DATABASE) and
// ensures the rooms table exists.
func ConnectPostgres(ctx context.Context) (*Postgres, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	q := `
		CREATE TABLE IF NOT EXISTS rooms (
			id UUID PRIMARY KEY,
			document JSONB NOT NULL,
			is_terminated BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := p.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure rooms schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// SaveRoom upserts the room document inside a transaction.
func (p *Postgres) SaveRoom(ctx context.Context, room *kadi.Room) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.RoomID, err)
	}
	err = pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO rooms (id, document, is_terminated, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (id)
			DO UPDATE SET document = EXCLUDED.document,
			              is_terminated = EXCLUDED.is_terminated,
			              updated_at = NOW()
		`
		_, e := tx.Exec(ctx, q, room.RoomID, doc, room.IsTerminated)
		return e
	})
	if err != nil {
		return fmt.Errorf("upsert room %s: %w", room.RoomID, err)
	}
	return nil
}

// LoadRoom fetches and decodes one room document.
func (p *Postgres) LoadRoom(ctx context.Context, roomID uuid.UUID) (*kadi.Room, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT document FROM rooms WHERE id = $1`, roomID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, kadi.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	var room kadi.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &room, nil
}

// ListActiveRooms returns every room that has not terminated.
func (p *Postgres) ListActiveRooms(ctx context.Context) ([]*kadi.Room, error) {
	rows, err := p.pool.Query(ctx, `SELECT document FROM rooms WHERE is_terminated = FALSE`)
	if err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	defer rows.Close()

	var out []*kadi.Room
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var room kadi.Room
		if err := json.Unmarshal(doc, &room); err != nil {
			return nil, fmt.Errorf("decode room document: %w", err)
		}
		out = append(out, &room)
	}
	return out, rows.Err()
}

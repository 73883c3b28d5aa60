// Package database opens the PostgreSQL connection and applies the schema.
// Stores are plain SQL over database/sql; the pgx driver is registered by the
// stdlib adapter import.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the schema idempotently. The unique indexes on inscriptions
// are the authoritative duplicate-prevention backstop: the service pre-checks
// are advisory and the 23505 violation is the signal that wins races.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		cpf        TEXT NOT NULL UNIQUE,
		phone      TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id              UUID PRIMARY KEY,
		title           TEXT NOT NULL,
		subtitle        TEXT NOT NULL DEFAULT '',
		description     TEXT NOT NULL DEFAULT '',
		location        TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		starts_at       TIMESTAMPTZ NOT NULL,
		ends_at         TIMESTAMPTZ,
		payment_methods TEXT[] NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS event_categories (
		id             UUID PRIMARY KEY,
		event_id       UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		name           TEXT NOT NULL,
		price_centavos BIGINT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		display_order  INT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS event_categories_event_idx ON event_categories (event_id, display_order)`,
	`CREATE TABLE IF NOT EXISTS inscriptions (
		id               UUID PRIMARY KEY,
		event_id         UUID NOT NULL,
		category_id      UUID NOT NULL,
		user_id          UUID,
		guest_name       TEXT NOT NULL DEFAULT '',
		guest_email      TEXT NOT NULL DEFAULT '',
		guest_phone      TEXT NOT NULL DEFAULT '',
		guest_birth_date DATE,
		guest_gender     TEXT NOT NULL DEFAULT '',
		cpf              TEXT NOT NULL,
		amount_centavos  BIGINT NOT NULL,
		payment_method   TEXT NOT NULL,
		status           TEXT NOT NULL,
		payment_ref      TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	// One registration per person per event, on the normalized tax id. Covers
	// both the guest-vs-guest and guest-vs-user races.
	`CREATE UNIQUE INDEX IF NOT EXISTS inscriptions_event_cpf_key ON inscriptions (event_id, cpf)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS inscriptions_event_user_key ON inscriptions (event_id, user_id) WHERE user_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS inscriptions_cpf_idx ON inscriptions (cpf)`,
	`CREATE INDEX IF NOT EXISTS inscriptions_event_status_idx ON inscriptions (event_id, status)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id              UUID PRIMARY KEY,
		inscription_id  UUID NOT NULL,
		event_id        UUID NOT NULL,
		user_id         UUID,
		charge_id       TEXT NOT NULL,
		amount_centavos BIGINT NOT NULL,
		status          TEXT NOT NULL,
		payment_method  TEXT NOT NULL,
		pix_payload     TEXT NOT NULL DEFAULT '',
		pix_qr_image    TEXT NOT NULL DEFAULT '',
		slip_url        TEXT NOT NULL DEFAULT '',
		due_date        TIMESTAMPTZ NOT NULL,
		paid_at         TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS payments_charge_key ON payments (charge_id)`,
	`CREATE INDEX IF NOT EXISTS payments_inscription_idx ON payments (inscription_id)`,
	`CREATE INDEX IF NOT EXISTS payments_event_status_idx ON payments (event_id, status)`,
}

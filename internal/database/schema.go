package database

import (
	"database/sql"
	"fmt"
)

// The snapshot uniqueness constraint is load-bearing: the daily snapshot job
// re-runs safely after a crash only because a second insert for the same
// (user, date) pair is rejected at the database level.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		pin_hash VARCHAR(256) NOT NULL,
		role VARCHAR(10) NOT NULL DEFAULT 'student',
		first_name VARCHAR(50) NOT NULL,
		last_name VARCHAR(50) NOT NULL,
		class_name VARCHAR(50),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS focus_behaviors (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description VARCHAR(255),
		is_system_default BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		amount INTEGER NOT NULL,
		type VARCHAR(10) NOT NULL,
		category_id INTEGER REFERENCES focus_behaviors(id),
		notes VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by_id INTEGER REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at)`,
	`CREATE TABLE IF NOT EXISTS daily_snapshots (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		snapshot_date DATE NOT NULL,
		balance_at_snapshot INTEGER NOT NULL DEFAULT 0,
		CONSTRAINT unique_user_date_snapshot UNIQUE (user_id, snapshot_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_snapshots_date ON daily_snapshots(snapshot_date)`,
	`CREATE TABLE IF NOT EXISTS teacher_focus_behaviors (
		id SERIAL PRIMARY KEY,
		teacher_id INTEGER NOT NULL REFERENCES users(id),
		behavior_id INTEGER NOT NULL REFERENCES focus_behaviors(id),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		display_order INTEGER NOT NULL DEFAULT 0,
		CONSTRAINT unique_teacher_behavior UNIQUE (teacher_id, behavior_id)
	)`,
	`CREATE TABLE IF NOT EXISTS raffle_draws (
		id SERIAL PRIMARY KEY,
		draw_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		winner_id INTEGER NOT NULL REFERENCES users(id),
		prize_amount INTEGER NOT NULL,
		prize_description VARCHAR(255),
		conducted_by_id INTEGER NOT NULL REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS system_config (
		key VARCHAR(50) PRIMARY KEY,
		value VARCHAR(255) NOT NULL,
		description VARCHAR(255),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates any missing tables and indexes
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var DebugLog func(string, ...interface{})

var ErrNotFound = errors.New("config not found")

// DB records the frozen config of every experiment run so a run can be
// reproduced from its name alone. A DB built from an empty DSN is disabled
// and every write is a no-op.
type DB struct {
	conn    *sql.DB
	enabled bool
}

type ConfigRecord struct {
	Name      string
	Hash      string
	Config    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(dsn string) (*DB, error) {
	db := &DB{enabled: dsn != ""}

	if !db.enabled {
		if DebugLog != nil {
			DebugLog("config registry disabled")
		}
		return db, nil
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return db, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return db, fmt.Errorf("failed to ping database: %w", err)
	}

	db.conn = conn

	if err := db.initSchema(); err != nil {
		return db, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func (db *DB) initSchema() error {
	if !db.IsEnabled() {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS experiment_configs (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		hash CHAR(64) NOT NULL,
		config TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_experiment_configs_hash ON experiment_configs(hash);
	`

	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func (db *DB) IsEnabled() bool {
	return db.enabled && db.conn != nil
}

// ConfigHash identifies a dumped config by content.
func ConfigHash(config string) string {
	sum := sha256.Sum256([]byte(config))
	return hex.EncodeToString(sum[:])
}

// RecordConfig stores the dumped config of run name, replacing an older
// entry with the same name.
func (db *DB) RecordConfig(name, config string) error {
	if !db.IsEnabled() {
		return nil
	}

	hash := ConfigHash(config)
	if DebugLog != nil {
		DebugLog("recording config for %s (sha256 %s)", name, hash[:12])
	}

	_, err := db.conn.Exec(`
		INSERT INTO experiment_configs (name, hash, config, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE
		SET hash = EXCLUDED.hash, config = EXCLUDED.config, updated_at = NOW()
	`, name, hash, config)
	if err != nil {
		return fmt.Errorf("failed to record config: %w", err)
	}

	return nil
}

func (db *DB) LookupConfig(name string) (*ConfigRecord, error) {
	if !db.IsEnabled() {
		return nil, fmt.Errorf("database is not enabled")
	}

	var r ConfigRecord
	err := db.conn.QueryRow(`
		SELECT name, hash, config, created_at, updated_at
		FROM experiment_configs
		WHERE name = $1
	`, name).Scan(&r.Name, &r.Hash, &r.Config, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// FindByHash lists the runs that used exactly this config.
func (db *DB) FindByHash(hash string) ([]ConfigRecord, error) {
	if !db.IsEnabled() {
		return nil, fmt.Errorf("database is not enabled")
	}

	rows, err := db.conn.Query(`
		SELECT name, hash, config, created_at, updated_at
		FROM experiment_configs
		WHERE hash = $1
		ORDER BY created_at DESC
	`, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ConfigRecord
	for rows.Next() {
		var r ConfigRecord
		if err := rows.Scan(&r.Name, &r.Hash, &r.Config, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

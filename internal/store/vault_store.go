// SPDX-License-Identifier: MIT
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/farholt/heirloomd/internal/vault"
)

const schemaVersion = 1

// VaultStore persists vault snapshots.
type VaultStore struct {
	DB *sql.DB
}

// NewVaultStore opens (or creates) the vault store at dbPath.
func NewVaultStore(dbPath string) (*VaultStore, error) {
	db, err := Open(dbPath, DefaultSQLiteConfig())
	if err != nil {
		return nil, err
	}

	s := &VaultStore{DB: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("vault store: migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying pool.
func (s *VaultStore) Close() error {
	return s.DB.Close()
}

func (s *VaultStore) migrate() error {
	var currentVersion int
	if err := s.DB.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS vaults (
		vault_id TEXT PRIMARY KEY,
		owner TEXT NOT NULL UNIQUE,
		state TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vaults_state ON vaults(state);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Save upserts one vault snapshot.
func (s *VaultStore) Save(snap vault.Snapshot) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.ID, err)
	}

	query := `
	INSERT INTO vaults (vault_id, owner, state, snapshot_json, updated_at_ms)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(vault_id) DO UPDATE SET
		owner = excluded.owner,
		state = excluded.state,
		snapshot_json = excluded.snapshot_json,
		updated_at_ms = excluded.updated_at_ms
	`
	_, err = s.DB.Exec(query,
		snap.ID, string(snap.Owner), snap.State.String(), blob, time.Now().UnixMilli())
	return err
}

// LoadAll returns every persisted vault snapshot.
func (s *VaultStore) LoadAll() ([]vault.Snapshot, error) {
	rows, err := s.DB.Query("SELECT snapshot_json FROM vaults ORDER BY vault_id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []vault.Snapshot
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var snap vault.Snapshot
		if err := json.Unmarshal(blob, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

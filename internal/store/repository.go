package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SnapshotKey names the single durable blob, matching the storage key the
// web client used for the same state.
const SnapshotKey = "bookstore-storage"

type Repository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Load(ctx context.Context) (*Snapshot, error) {
	const query = `SELECT version, data FROM storefront_snapshots WHERE key = $1`

	var (
		version int
		data    []byte
	)
	err := r.db.QueryRowContext(ctx, query, SnapshotKey).Scan(&version, &data)
	if err != nil {
		if err == sql.ErrNoRows {
			// first boot: nothing persisted yet
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	// the column is authoritative over whatever the blob claims
	snap.Version = version

	return &snap, nil
}

func (r *repo) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	const upsert = `
INSERT INTO storefront_snapshots (key, version, data, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (key) DO UPDATE
SET version = EXCLUDED.version, data = EXCLUDED.data, updated_at = NOW()
`
	if _, err := r.db.ExecContext(ctx, upsert, SnapshotKey, snap.Version, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

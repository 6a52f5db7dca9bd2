package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/funnelgraph/lag/internal/model"
)

// ErrNoSnapshot is returned when the store holds no snapshot yet.
var ErrNoSnapshot = errors.New("no snapshot in store")

// SaveSnapshot persists a graph snapshot and returns its content-addressed id.
// Idempotent: saving an identical graph again inserts nothing and returns the
// same id, which is how an unchanged re-run shows up as a no-op in storage.
func (s *Store) SaveSnapshot(ctx context.Context, g *model.Graph, runID string) (string, error) {
	id, err := model.SnapshotID(g)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	canonical, err := model.MarshalCanonical(g)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, graph, run_id, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots))
		ON CONFLICT(id) DO NOTHING
	`, id, string(canonical), runID)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// LoadSnapshot reads a snapshot by id.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (*model.Graph, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT graph FROM snapshots WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return decodeGraph(raw)
}

// LatestSnapshot reads the most recently applied snapshot.
func (s *Store) LatestSnapshot(ctx context.Context) (*model.Graph, string, error) {
	var id, raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, graph FROM snapshots ORDER BY seq DESC LIMIT 1
	`).Scan(&id, &raw)
	if err == sql.ErrNoRows {
		return nil, "", ErrNoSnapshot
	}
	if err != nil {
		return nil, "", fmt.Errorf("load latest snapshot: %w", err)
	}
	g, err := decodeGraph(raw)
	if err != nil {
		return nil, "", err
	}
	return g, id, nil
}

func decodeGraph(raw string) (*model.Graph, error) {
	var g model.Graph
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &g, nil
}

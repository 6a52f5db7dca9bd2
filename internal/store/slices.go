package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/funnelgraph/lag/internal/model"
)

// Values returns all slice values for a parameter, oldest retrieval first.
// This satisfies the engine's SliceSource; the engine never writes back.
func (s *Store) Values(ctx context.Context, paramID string) ([]model.ParameterValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM parameter_values
		WHERE param_id = ?
		ORDER BY retrieved_at ASC, id ASC
	`, paramID)
	if err != nil {
		return nil, fmt.Errorf("read values for %s: %w", paramID, err)
	}
	defer rows.Close()

	var values []model.ParameterValue
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("read values for %s: %w", paramID, err)
		}
		var v model.ParameterValue
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, fmt.Errorf("decode value for %s: %w", paramID, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read values for %s: %w", paramID, err)
	}
	return values, nil
}

// ImportValues appends slice values for a parameter. This is the retrieval
// boundary: the external sync layer owns writes, the engine only ever reads.
// All values land in one transaction - a failed import leaves nothing behind.
func (s *Store) ImportValues(ctx context.Context, paramID string, values []model.ParameterValue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import values for %s: %w", paramID, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO parameter_values
		(param_id, scope_mode, anchor, start_day, end_day, signature, payload, retrieved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("import values for %s: %w", paramID, err)
	}
	defer stmt.Close()

	for i := range values {
		v := &values[i]
		if v.RetrievedAt.IsZero() {
			v.RetrievedAt = time.Now().UTC()
		}
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("import values for %s: %w", paramID, err)
		}
		_, err = stmt.ExecContext(ctx,
			paramID,
			string(v.Scope.Mode),
			v.Scope.Anchor,
			string(v.Scope.Start),
			string(v.Scope.End),
			v.Scope.Signature,
			string(payload),
			v.RetrievedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("import values for %s: %w", paramID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import values for %s: %w", paramID, err)
	}
	return nil
}

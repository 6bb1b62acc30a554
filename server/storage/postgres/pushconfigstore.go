package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server/pushstore"
)

var _ pushstore.Store = (*PushConfigStore)(nil)

// PushConfigStore persists PushNotificationConfigs as JSONB rows in
// a2a_push_configs, keyed by (task_id, config_id).
type PushConfigStore struct {
	db *DB
}

// NewPushConfigStore builds a PushConfigStore over an already-opened DB.
func NewPushConfigStore(db *DB) *PushConfigStore {
	return &PushConfigStore{db: db}
}

func (s *PushConfigStore) Save(ctx context.Context, taskID string, config a2a.PushNotificationConfig) (a2a.PushNotificationConfig, error) {
	if config.ID == "" {
		config.ID = taskID
	}
	data, err := json.Marshal(config)
	if err != nil {
		return a2a.PushNotificationConfig{}, fmt.Errorf("postgres: marshal push config: %w", err)
	}
	const query = `
		INSERT INTO a2a_push_configs (task_id, config_id, data) VALUES ($1, $2, $3)
		ON CONFLICT (task_id, config_id) DO UPDATE SET data = EXCLUDED.data`
	if _, err := s.db.sql.ExecContext(ctx, query, taskID, config.ID, data); err != nil {
		return a2a.PushNotificationConfig{}, fmt.Errorf("postgres: save push config %s/%s: %w", taskID, config.ID, err)
	}
	return config, nil
}

func (s *PushConfigStore) Get(ctx context.Context, taskID, configID string) (a2a.PushNotificationConfig, bool, error) {
	if configID == "" {
		configID = taskID
	}
	const query = `SELECT data FROM a2a_push_configs WHERE task_id = $1 AND config_id = $2`
	var data []byte
	err := s.db.sql.QueryRowContext(ctx, query, taskID, configID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return a2a.PushNotificationConfig{}, false, nil
	}
	if err != nil {
		return a2a.PushNotificationConfig{}, false, fmt.Errorf("postgres: get push config %s/%s: %w", taskID, configID, err)
	}
	var config a2a.PushNotificationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return a2a.PushNotificationConfig{}, false, fmt.Errorf("postgres: unmarshal push config %s/%s: %w", taskID, configID, err)
	}
	return config, true, nil
}

func (s *PushConfigStore) List(ctx context.Context, taskID string) ([]a2a.PushNotificationConfig, error) {
	const query = `SELECT data FROM a2a_push_configs WHERE task_id = $1`
	rows, err := s.db.sql.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list push configs for %s: %w", taskID, err)
	}
	defer rows.Close()

	var out []a2a.PushNotificationConfig
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("postgres: scan push config row for %s: %w", taskID, err)
		}
		var config a2a.PushNotificationConfig
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal push config for %s: %w", taskID, err)
		}
		out = append(out, config)
	}
	return out, rows.Err()
}

func (s *PushConfigStore) Delete(ctx context.Context, taskID, configID string) error {
	if configID == "" {
		configID = taskID
	}
	const query = `DELETE FROM a2a_push_configs WHERE task_id = $1 AND config_id = $2`
	if _, err := s.db.sql.ExecContext(ctx, query, taskID, configID); err != nil {
		return fmt.Errorf("postgres: delete push config %s/%s: %w", taskID, configID, err)
	}
	return nil
}

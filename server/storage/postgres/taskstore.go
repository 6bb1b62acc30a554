package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server/taskstore"
)

var _ taskstore.Store = (*TaskStore)(nil)

// TaskStore persists Tasks as JSONB rows in a2a_tasks.
type TaskStore struct {
	db *DB
}

// NewTaskStore builds a TaskStore over an already-opened DB.
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil {
		return a2a.NewInvalidParamsError("cannot save a nil task")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("postgres: marshal task: %w", err)
	}
	const query = `
		INSERT INTO a2a_tasks (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`
	if _, err := s.db.sql.ExecContext(ctx, query, task.ID, data); err != nil {
		return fmt.Errorf("postgres: save task %s: %w", task.ID, err)
	}
	return nil
}

func (s *TaskStore) Load(ctx context.Context, id string) (*a2a.Task, error) {
	const query = `SELECT data FROM a2a_tasks WHERE id = $1`
	var data []byte
	err := s.db.sql.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, a2a.NewTaskNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load task %s: %w", id, err)
	}
	var task a2a.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal task %s: %w", id, err)
	}
	return &task, nil
}

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/candemir/studydeck/internal/task"
)

// SaveTasks replaces the persisted live task set with the given one,
// inside a single transaction. Satisfies task.Persister.
func (s *Store) SaveTasks(tasks []*task.Task) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save tasks: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tasks (id, title, note, estimated_minutes, due_date, priority,
		                   tags, recurrence, subtasks, status, completed,
		                   completed_at, created_at, sessions, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert task: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		tags, _ := json.Marshal(t.Tags)
		subtasks, _ := json.Marshal(t.Subtasks)

		var due, completedAt any
		if t.DueDate != nil {
			due = t.DueDate.UTC().Format("2006-01-02")
		}
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.UTC().Format(time.RFC3339)
		}

		if _, err := stmt.Exec(
			t.ID, t.Title, t.Note, t.EstimatedMinutes, due, string(t.Priority),
			string(tags), string(t.Recurrence), string(subtasks), string(t.Status),
			boolToInt(t.Completed), completedAt,
			t.CreatedAt.UTC().Format(time.RFC3339), t.Sessions, i,
		); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// LoadTasks reads the persisted live task set in saved order.
func (s *Store) LoadTasks() ([]*task.Task, error) {
	rows, err := s.db.Query(`
		SELECT id, title, note, estimated_minutes, due_date, priority, tags,
		       recurrence, subtasks, status, completed, completed_at,
		       created_at, sessions
		FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t := &task.Task{}
		var due, completedAt sql.NullString
		var tags, subtasks, priority, recurrence, status, createdAt string
		var completed int

		if err := rows.Scan(
			&t.ID, &t.Title, &t.Note, &t.EstimatedMinutes, &due, &priority,
			&tags, &recurrence, &subtasks, &status, &completed, &completedAt,
			&createdAt, &t.Sessions,
		); err != nil {
			return nil, err
		}

		t.Priority = task.Priority(priority)
		t.Recurrence = task.Recurrence(recurrence)
		t.Status = task.Status(status)
		t.Completed = completed == 1
		json.Unmarshal([]byte(tags), &t.Tags)
		json.Unmarshal([]byte(subtasks), &t.Subtasks)

		if due.Valid {
			if d, err := time.Parse("2006-01-02", due.String); err == nil {
				d = d.UTC()
				t.DueDate = &d
			}
		}
		if completedAt.Valid {
			if at, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
				t.CompletedAt = &at
			}
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/candemir/studydeck/internal/history"
	"github.com/candemir/studydeck/internal/task"
)

// SaveHistory replaces the persisted ledger with the given entries.
// Satisfies history.Persister.
func (s *Store) SaveHistory(entries []history.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save history: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO history (task_id, title, tags, estimated_minutes, priority, completed_at, day)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert history: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		tags, _ := json.Marshal(e.Tags)
		if _, err := stmt.Exec(
			e.TaskID, e.Title, string(tags), e.EstimatedMinutes,
			string(e.Priority), e.CompletedAt.UTC().Format(time.RFC3339), e.Day,
		); err != nil {
			return fmt.Errorf("insert history entry %s/%s: %w", e.TaskID, e.Day, err)
		}
	}

	return tx.Commit()
}

// LoadHistory reads the persisted ledger, oldest first.
func (s *Store) LoadHistory() ([]history.Entry, error) {
	rows, err := s.db.Query(`
		SELECT task_id, title, tags, estimated_minutes, priority, completed_at, day
		FROM history ORDER BY completed_at`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		var e history.Entry
		var tags, priority, completedAt string
		if err := rows.Scan(&e.TaskID, &e.Title, &tags, &e.EstimatedMinutes, &priority, &completedAt, &e.Day); err != nil {
			return nil, err
		}
		e.Priority = task.Priority(priority)
		json.Unmarshal([]byte(tags), &e.Tags)
		e.CompletedAt, _ = time.Parse(time.RFC3339, completedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

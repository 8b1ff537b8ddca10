package storage

import (
	"database/sql"
	"fmt"

	"github.com/candemir/studydeck/internal/focus"
)

// SaveActiveSession persists the resume-after-restart snapshot of the
// focus scheduler. A nil snapshot clears it.
func (s *Store) SaveActiveSession(snap *focus.Snapshot) error {
	if snap == nil {
		return s.ClearActiveSession()
	}
	_, err := s.db.Exec(`
		INSERT INTO active_session (id, task_id, task_title, phase, seconds_remaining, sessions_remaining)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			task_id = excluded.task_id,
			task_title = excluded.task_title,
			phase = excluded.phase,
			seconds_remaining = excluded.seconds_remaining,
			sessions_remaining = excluded.sessions_remaining`,
		snap.TaskID, snap.TaskTitle, string(snap.Phase),
		snap.SecondsRemaining, snap.SessionsRemaining,
	)
	if err != nil {
		return fmt.Errorf("save active session: %w", err)
	}
	return nil
}

// LoadActiveSession returns the saved snapshot, or nil when no session
// was active.
func (s *Store) LoadActiveSession() (*focus.Snapshot, error) {
	snap := &focus.Snapshot{}
	var phase string
	err := s.db.QueryRow(`
		SELECT task_id, task_title, phase, seconds_remaining, sessions_remaining
		FROM active_session WHERE id = 1`,
	).Scan(&snap.TaskID, &snap.TaskTitle, &phase, &snap.SecondsRemaining, &snap.SessionsRemaining)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active session: %w", err)
	}
	snap.Phase = focus.Phase(phase)
	return snap, nil
}

func (s *Store) ClearActiveSession() error {
	_, err := s.db.Exec(`DELETE FROM active_session`)
	return err
}

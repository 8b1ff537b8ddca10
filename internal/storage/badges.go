package storage

import "fmt"

// SaveBadges merges newly unlocked badge identifiers into the persisted
// set. Badges are only ever added; the unlocked set is monotonic.
func (s *Store) SaveBadges(badges []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save badges: %w", err)
	}
	defer tx.Rollback()

	for _, b := range badges {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO unlocked_badges (badge) VALUES (?)`, b); err != nil {
			return fmt.Errorf("insert badge %q: %w", b, err)
		}
	}
	return tx.Commit()
}

// LoadBadges returns the persisted unlocked-badge set.
func (s *Store) LoadBadges() ([]string, error) {
	rows, err := s.db.Query(`SELECT badge FROM unlocked_badges ORDER BY unlocked_at`)
	if err != nil {
		return nil, fmt.Errorf("load badges: %w", err)
	}
	defer rows.Close()

	var badges []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

package database

import "database/sql"

// InsertChannel adds a channel to the tracked set. Returns false if the
// channel already exists.
func (db *DB) InsertChannel(id, name string, description *string) (bool, error) {
	result, err := db.conn.Exec(
		`INSERT OR IGNORE INTO channels (id, name, description, is_active) VALUES (?, ?, ?, 1)`,
		id, name, description,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetActiveChannels returns all active channels ordered by name.
func (db *DB) GetActiveChannels() ([]Channel, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, description, is_active, added_at, last_updated
		FROM channels WHERE is_active = 1 ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChannels(rows)
}

// GetChannelByID returns a single channel, or nil if unknown.
func (db *DB) GetChannelByID(id string) (*Channel, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, description, is_active, added_at, last_updated
		FROM channels WHERE id = ?`, id,
	)
	var c Channel
	var active int
	err := row.Scan(&c.ID, &c.Name, &c.Description, &active, &c.AddedAt, &c.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.IsActive = active != 0
	return &c, nil
}

// DeactivateChannel removes a channel from the active tracked set without
// discarding its history.
func (db *DB) DeactivateChannel(id string) error {
	_, err := db.conn.Exec(
		"UPDATE channels SET is_active = 0, last_updated = datetime('now') WHERE id = ?", id,
	)
	return err
}

// TouchChannel records that a channel's uploads were checked.
func (db *DB) TouchChannel(id string) error {
	_, err := db.conn.Exec(
		"UPDATE channels SET last_updated = datetime('now') WHERE id = ?", id,
	)
	return err
}

func scanChannels(rows *sql.Rows) ([]Channel, error) {
	var channels []Channel
	for rows.Next() {
		var c Channel
		var active int
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &active, &c.AddedAt, &c.LastUpdated); err != nil {
			return nil, err
		}
		c.IsActive = active != 0
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

package state

import (
	"database/sql"
	"errors"
)

// PlaybackState represents the saved playback settings.
type PlaybackState struct {
	Volume float64
	Muted  bool
	Loop   bool
}

// GetPlayback returns the saved playback settings.
func (m *Manager) GetPlayback() (*PlaybackState, error) {
	var volume float64
	var muted, loop bool

	row := m.db.QueryRow(`SELECT volume, muted, loop FROM playback_state WHERE id = 1`)
	err := row.Scan(&volume, &muted, &loop)
	if errors.Is(err, sql.ErrNoRows) {
		return &PlaybackState{Volume: 1.0}, nil
	}
	if err != nil {
		return nil, err
	}

	return &PlaybackState{Volume: volume, Muted: muted, Loop: loop}, nil
}

// SavePlayback persists the playback settings.
func (m *Manager) SavePlayback(s PlaybackState) error {
	_, err := m.db.Exec(`
		INSERT INTO playback_state (id, volume, muted, loop)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			muted = excluded.muted,
			loop = excluded.loop
	`, s.Volume, s.Muted, s.Loop)
	return err
}

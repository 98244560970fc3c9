package state

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// DeviceID returns the stable device identifier, generating and storing
// one on first use. The server keys its device list and play sessions
// on it, so it must survive restarts.
func (m *Manager) DeviceID() (string, error) {
	var id string
	err := m.db.QueryRow(`SELECT device_id FROM device WHERE id = 1`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	if _, err := m.db.Exec(`INSERT INTO device (id, device_id) VALUES (1, ?)`, id); err != nil {
		return "", err
	}
	return id, nil
}

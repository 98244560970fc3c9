package state

import (
	"database/sql"
	"errors"

	"github.com/avrillon/cadenza/internal/catalog"
)

// QueueState represents the saved queue snapshot. Items are restored
// shallow: streams and resume positions come back from the server when
// an item is played again.
type QueueState struct {
	CurrentIndex int
	Items        []catalog.PlayableItem
}

// GetQueue returns the saved queue snapshot.
func (m *Manager) GetQueue() (*QueueState, error) {
	var currentIndex int
	row := m.db.QueryRow(`SELECT current_index FROM queue_state WHERE id = 1`)
	err := row.Scan(&currentIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := m.db.Query(`
		SELECT item_id, kind, name, series_name, artist, album, runtime_ticks
		FROM queue_items
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.PlayableItem
	for rows.Next() {
		var it catalog.PlayableItem
		var kind string
		var seriesName, artist, album sql.NullString
		var runtime int64

		if err := rows.Scan(&it.ID, &kind, &it.Name, &seriesName, &artist, &album, &runtime); err != nil {
			return nil, err
		}
		it.Kind = catalog.Kind(kind)
		it.SeriesName = seriesName.String
		it.Artist = artist.String
		it.Album = album.String
		it.RuntimeTicks = catalog.Ticks(runtime)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueueState{CurrentIndex: currentIndex, Items: items}, nil
}

// SaveQueue persists the queue snapshot, replacing any previous one.
func (m *Manager) SaveQueue(s QueueState) error {
	return m.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM queue_items`); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO queue_state (id, current_index)
			VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index
		`, s.CurrentIndex)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO queue_items (position, item_id, kind, name, series_name, artist, album, runtime_ticks)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, it := range s.Items {
			_, err = stmt.Exec(i, it.ID, string(it.Kind), it.Name, it.SeriesName, it.Artist, it.Album, int64(it.RuntimeTicks))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

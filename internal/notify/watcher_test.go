package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
	"github.com/avrillon/cadenza/internal/negotiate"
	"github.com/avrillon/cadenza/internal/queue"
	"github.com/avrillon/cadenza/internal/render"
	"github.com/avrillon/cadenza/internal/session"
)

// mockNotifier records notifications for testing.
type mockNotifier struct {
	mu            sync.Mutex
	notifications []Notification
	lastID        uint32
}

func (m *mockNotifier) Notify(n Notification) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastID++
	m.notifications = append(m.notifications, n)
	return m.lastID, nil
}

func (m *mockNotifier) Close(_ uint32) error { return nil }

func (m *mockNotifier) all() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

type staticCatalog struct{}

func (staticCatalog) ExpandContainer(_ context.Context, item catalog.PlayableItem) ([]catalog.PlayableItem, error) {
	return []catalog.PlayableItem{item}, nil
}

func (staticCatalog) Negotiate(_ context.Context, item catalog.PlayableItem, _ catalog.TrackSelection, _ catalog.Ticks) (*catalog.MediaSource, error) {
	return &catalog.MediaSource{
		ID:            "src-" + item.ID,
		ItemID:        item.ID,
		Container:     "mp3",
		StreamURL:     "http://server/" + item.ID,
		PlaySessionID: "ps-" + item.ID,
	}, nil
}

func (staticCatalog) Segments(context.Context, string) ([]catalog.Segment, error) { return nil, nil }

func mockFactory(string) (render.Primitive, error) { return render.NewMock(), nil }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newFixture(t *testing.T) (session.Service, *mockNotifier) {
	t.Helper()
	mock := &mockNotifier{}
	neg := negotiate.New(staticCatalog{}, time.Second, zerolog.Nop())
	svc := session.New(queue.New(), neg, mockFactory, nil, zerolog.Nop())
	w := NewWatcher(svc, mock, zerolog.Nop())
	go w.Run()
	t.Cleanup(func() {
		w.Close()
		_ = svc.Close()
	})
	return svc, mock
}

func TestWatcher_NowPlayingNotification(t *testing.T) {
	svc, mock := newFixture(t)

	_ = svc.SetQueue([]catalog.PlayableItem{{
		ID:     "a",
		Kind:   catalog.KindAudio,
		Name:   "Test Song",
		Artist: "Test Artist",
		Album:  "Test Album",
	}}, 0)
	if err := svc.PlayQueueItem(0); err != nil {
		t.Fatalf("PlayQueueItem: %v", err)
	}

	waitFor(t, "notification", func() bool { return len(mock.all()) == 1 })

	n := mock.all()[0]
	if n.Title != "Test Song" {
		t.Errorf("Title = %q, want %q", n.Title, "Test Song")
	}
	if n.Body != "Test Artist · Test Album" {
		t.Errorf("Body = %q, want %q", n.Body, "Test Artist · Test Album")
	}
	if n.ReplacesID != 0 {
		t.Errorf("first notification ReplacesID = %d, want 0", n.ReplacesID)
	}
}

func TestWatcher_ReplacesPrevious(t *testing.T) {
	svc, mock := newFixture(t)

	_ = svc.SetQueue([]catalog.PlayableItem{
		{ID: "a", Kind: catalog.KindAudio, Name: "First"},
		{ID: "b", Kind: catalog.KindAudio, Name: "Second"},
	}, 0)
	if err := svc.PlayQueueItem(0); err != nil {
		t.Fatalf("PlayQueueItem: %v", err)
	}
	waitFor(t, "first notification", func() bool { return len(mock.all()) == 1 })

	if err := svc.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	waitFor(t, "second notification", func() bool { return len(mock.all()) == 2 })

	second := mock.all()[1]
	if second.Title != "Second" {
		t.Errorf("Title = %q, want %q", second.Title, "Second")
	}
	if second.ReplacesID != 1 {
		t.Errorf("ReplacesID = %d, want 1", second.ReplacesID)
	}
}

func TestWatcher_SeriesTitle(t *testing.T) {
	svc, mock := newFixture(t)

	_ = svc.SetQueue([]catalog.PlayableItem{{
		ID:         "ep",
		Kind:       catalog.KindEpisode,
		Name:       "Pilot",
		SeriesName: "Some Show",
	}}, 0)
	if err := svc.PlayQueueItem(0); err != nil {
		t.Fatalf("PlayQueueItem: %v", err)
	}

	waitFor(t, "notification", func() bool { return len(mock.all()) == 1 })
	if got := mock.all()[0].Title; got != "Some Show - Pilot" {
		t.Errorf("Title = %q, want series-prefixed name", got)
	}
}

package upnext

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

type mockFactory struct {
	mu    sync.Mutex
	mocks []*render.Mock
}

func (f *mockFactory) factory(string) (render.Primitive, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := render.NewMock()
	f.mocks = append(f.mocks, m)
	return m, nil
}

func (f *mockFactory) latest() *render.Mock {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.mocks) == 0 {
		return nil
	}
	return f.mocks[len(f.mocks)-1]
}

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

func items(ids ...string) []catalog.PlayableItem {
	out := make([]catalog.PlayableItem, len(ids))
	for i, id := range ids {
		out[i] = catalog.PlayableItem{ID: id, Kind: catalog.KindAudio, RuntimeTicks: catalog.TicksFromSeconds(200)}
	}
	return out
}

func newFixture(t *testing.T) (session.Service, *mockFactory) {
	t.Helper()
	mf := &mockFactory{}
	neg := negotiate.New(staticCatalog{}, time.Second, zerolog.Nop())
	svc := session.New(queue.New(), neg, mf.factory, nil, zerolog.Nop())
	ctl := New(svc, zerolog.Nop())
	go ctl.Run()
	t.Cleanup(func() {
		ctl.Close()
		_ = svc.Close()
	})
	return svc, mf
}

func TestAutoAdvance(t *testing.T) {
	svc, mf := newFixture(t)
	_ = svc.SetQueue(items("a", "b"), 0)
	_ = svc.PlayQueueItem(0)
	waitFor(t, "playing a", func() bool { return svc.State() == session.Playing })

	mf.latest().Emit(render.Event{Kind: render.EventEnded})

	waitFor(t, "playing b", func() bool {
		cur := svc.CurrentItem()
		return svc.State() == session.Playing && cur != nil && cur.ID == "b"
	})
	if svc.QueueIndex() != 1 {
		t.Errorf("QueueIndex() = %d, want 1", svc.QueueIndex())
	}
}

func TestLastItemEnds_QueueEnded(t *testing.T) {
	svc, mf := newFixture(t)
	sub := svc.Subscribe()
	_ = svc.SetQueue(items("a"), 0)
	_ = svc.PlayQueueItem(0)
	waitFor(t, "playing", func() bool { return svc.State() == session.Playing })

	mf.latest().Emit(render.Event{Kind: render.EventEnded})

	select {
	case <-sub.QueueEnded:
	case <-time.After(2 * time.Second):
		t.Fatal("no end-of-queue notification")
	}
	waitFor(t, "idle", func() bool { return svc.State() == session.Idle })
}

func TestManualStop_NoAdvance(t *testing.T) {
	svc, _ := newFixture(t)
	_ = svc.SetQueue(items("a", "b"), 0)
	_ = svc.PlayQueueItem(0)
	waitFor(t, "playing", func() bool { return svc.State() == session.Playing })

	_ = svc.Stop()
	time.Sleep(50 * time.Millisecond)

	if svc.QueueIndex() != 0 {
		t.Errorf("QueueIndex() = %d, want 0 after manual stop", svc.QueueIndex())
	}
	if svc.State() != session.Idle {
		t.Errorf("State() = %s, want Idle", svc.State())
	}
}

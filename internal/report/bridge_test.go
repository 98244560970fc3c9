package report

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

type countingReporter struct {
	mu       sync.Mutex
	starts   []catalog.PlaybackInfo
	progress []catalog.Ticks
	stops    int
}

func (r *countingReporter) ReportStart(_ context.Context, info catalog.PlaybackInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, info)
	return nil
}

func (r *countingReporter) ReportProgress(_ context.Context, _ catalog.PlaybackInfo, pos catalog.Ticks) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, pos)
	return nil
}

func (r *countingReporter) ReportStop(context.Context, catalog.PlaybackInfo, catalog.Ticks) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	return nil
}

func (r *countingReporter) startCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts)
}

func (r *countingReporter) progressCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.progress)
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

type bridgeFixture struct {
	svc      session.Service
	reporter *countingReporter
	bridge   *Bridge
	factory  *render.Mock
}

func newBridgeFixture(t *testing.T, interval time.Duration) *bridgeFixture {
	t.Helper()
	f := &bridgeFixture{reporter: &countingReporter{}}
	factory := func(string) (render.Primitive, error) {
		f.factory = render.NewMock()
		return f.factory, nil
	}
	neg := negotiate.New(staticCatalog{}, time.Second, zerolog.Nop())
	// The session's own reporter stays nop here: the bridge under test
	// owns start and progress, the session owns stop.
	f.svc = session.New(queue.New(), neg, factory, catalog.NopReporter{}, zerolog.Nop())
	f.bridge = New(f.svc, f.reporter, interval, zerolog.Nop())
	go f.bridge.Run()
	t.Cleanup(func() {
		f.bridge.Close()
		_ = f.svc.Close()
	})
	return f
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

func playItem(t *testing.T, f *bridgeFixture, id string) {
	t.Helper()
	items := []catalog.PlayableItem{{ID: id, Kind: catalog.KindAudio, RuntimeTicks: catalog.TicksFromSeconds(300)}}
	if err := f.svc.SetQueue(items, 0); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.PlayQueueItem(0); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "playing", func() bool { return f.svc.State() == session.Playing })
}

func TestBridge_StartReportOncePerPlaySession(t *testing.T) {
	f := newBridgeFixture(t, time.Hour)
	playItem(t, f, "a")

	waitFor(t, "start report", func() bool { return f.reporter.startCount() == 1 })
	f.reporter.mu.Lock()
	info := f.reporter.starts[0]
	f.reporter.mu.Unlock()
	if info.PlaySessionID != "ps-a" || info.ItemID != "a" {
		t.Errorf("start report info = %+v", info)
	}

	// Pause/resume inside the same play session must not re-report.
	_ = f.svc.Pause()
	waitFor(t, "paused", func() bool { return f.svc.State() == session.Paused })
	_ = f.svc.Resume()
	waitFor(t, "playing again", func() bool { return f.svc.State() == session.Playing })

	time.Sleep(50 * time.Millisecond)
	if got := f.reporter.startCount(); got != 1 {
		t.Errorf("start reports = %d, want 1", got)
	}
}

func TestBridge_HeartbeatWhilePlaying(t *testing.T) {
	f := newBridgeFixture(t, 100*time.Millisecond)
	playItem(t, f, "a")
	f.factory.EmitProgress(catalog.TicksFromSeconds(5))

	// Three interval boundaries fit in the window, the fourth does not.
	time.Sleep(350 * time.Millisecond)
	if got := f.reporter.progressCount(); got != 3 {
		t.Errorf("progress reports = %d, want 3", got)
	}
}

func TestBridge_HeartbeatPhaseFollowsPlayStart(t *testing.T) {
	f := newBridgeFixture(t, 100*time.Millisecond)
	// Let the idle ticker run most of an interval before playback starts.
	time.Sleep(90 * time.Millisecond)
	playItem(t, f, "a")

	// The first heartbeat is due one full interval after play, not on the
	// idle ticker's leftover phase.
	time.Sleep(50 * time.Millisecond)
	if got := f.reporter.progressCount(); got != 0 {
		t.Errorf("progress reports right after play start = %d, want 0", got)
	}
	waitFor(t, "first heartbeat", func() bool { return f.reporter.progressCount() >= 1 })
}

func TestBridge_NoHeartbeatWhilePaused(t *testing.T) {
	f := newBridgeFixture(t, 20*time.Millisecond)
	playItem(t, f, "a")

	_ = f.svc.Pause()
	waitFor(t, "paused", func() bool { return f.svc.State() == session.Paused })

	base := f.reporter.progressCount()
	time.Sleep(100 * time.Millisecond)
	// Allow one in-flight heartbeat racing the pause, no more.
	if got := f.reporter.progressCount(); got > base+1 {
		t.Errorf("progress reports while paused: %d after %d", got, base)
	}
}

func TestBridge_NoHeartbeatWhenIdle(t *testing.T) {
	f := newBridgeFixture(t, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	if got := f.reporter.progressCount(); got != 0 {
		t.Errorf("progress reports while idle = %d, want 0", got)
	}
	if got := f.reporter.startCount(); got != 0 {
		t.Errorf("start reports while idle = %d, want 0", got)
	}
}

package jellyfin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		URL:        srv.URL,
		Token:      "tok123",
		UserID:     "user1",
		DeviceID:   "dev1",
		DeviceName: "test",
		Log:        zerolog.Nop(),
	})
}

func leafSelection(audio, subtitle int) catalog.TrackSelection {
	return catalog.TrackSelection{Video: catalog.TrackAuto, Audio: audio, Subtitle: subtitle}
}

func TestNegotiate_DirectAudio(t *testing.T) {
	var gotAuth, gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/Items/a1/PlaybackInfo" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if _, ok := body["DeviceProfile"]; !ok {
			t.Error("request lacks a device profile")
		}
		_ = json.NewEncoder(w).Encode(playbackInfoResponse{
			PlaySessionID: "ps-77",
			MediaSources: []mediaSourceDto{{
				ID:                 "ms-1",
				Container:          "flac",
				SupportsDirectPlay: true,
			}},
		})
	}))

	item := catalog.PlayableItem{ID: "a1", Kind: catalog.KindAudio, MediaSourceID: "ms-1"}
	src, err := c.Negotiate(context.Background(), item, leafSelection(0, catalog.TrackNone), 0)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(gotAuth, `Token="tok123"`) || !strings.Contains(gotAuth, `DeviceId="dev1"`) {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.Contains(gotQuery, "subtitleStreamIndex=-1") {
		t.Errorf("query = %q, want explicit subtitle opt-out", gotQuery)
	}
	if src.Method != catalog.PlayMethodDirect {
		t.Errorf("Method = %s, want DirectPlay", src.Method)
	}
	if src.PlaySessionID != "ps-77" {
		t.Errorf("PlaySessionID = %q, want ps-77", src.PlaySessionID)
	}
	if !strings.Contains(src.StreamURL, "/Audio/a1/universal?") {
		t.Errorf("StreamURL = %q, want universal audio endpoint", src.StreamURL)
	}
	if !strings.Contains(src.StreamURL, "playSessionId=ps-77") {
		t.Errorf("StreamURL = %q, want play session id bound", src.StreamURL)
	}
}

func TestNegotiate_TranscodePreferred(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(playbackInfoResponse{
			PlaySessionID: "ps-1",
			MediaSources: []mediaSourceDto{{
				ID:                  "ms-1",
				Container:           "mkv",
				SupportsTranscoding: true,
				TranscodingURL:      "/Videos/ms-1/stream.mp3?x=1",
			}},
		})
	}))

	item := catalog.PlayableItem{ID: "v1", Kind: catalog.KindMovie}
	src, err := c.Negotiate(context.Background(), item, leafSelection(1, 3), 0)
	if err != nil {
		t.Fatal(err)
	}
	if src.Method != catalog.PlayMethodTranscode {
		t.Errorf("Method = %s, want Transcode", src.Method)
	}
	if !strings.HasSuffix(src.StreamURL, "/Videos/ms-1/stream.mp3?x=1") {
		t.Errorf("StreamURL = %q, want server transcoding url", src.StreamURL)
	}
	if src.Container != "mp3" {
		t.Errorf("Container = %q, want mp3 after transcode", src.Container)
	}
	if src.AudioTrack != 1 || src.SubtitleTrack != 3 {
		t.Errorf("tracks = %d/%d, want 1/3", src.AudioTrack, src.SubtitleTrack)
	}
}

func TestNegotiate_NoSources(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(playbackInfoResponse{PlaySessionID: "ps-1"})
	}))

	_, err := c.Negotiate(context.Background(), catalog.PlayableItem{ID: "a1", Kind: catalog.KindAudio}, leafSelection(0, catalog.TrackNone), 0)
	nerr, ok := catalog.IsNegotiationError(err)
	if !ok || nerr.Reason != catalog.ReasonNoSource {
		t.Fatalf("err = %v, want no-source negotiation error", err)
	}
}

func TestNegotiate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := NewClient(Options{URL: srv.URL, Token: "t", UserID: "u", DeviceID: "d", Log: zerolog.Nop()})
	srv.Close()

	_, err := c.Negotiate(context.Background(), catalog.PlayableItem{ID: "a1", Kind: catalog.KindAudio}, leafSelection(0, catalog.TrackNone), 0)
	nerr, ok := catalog.IsNegotiationError(err)
	if !ok || nerr.Reason != catalog.ReasonUnreachable {
		t.Fatalf("err = %v, want unreachable negotiation error", err)
	}
}

func TestExpandContainer_Album(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Items" {
			t.Errorf("path = %s, want /Items", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("parentId") != "alb1" || q.Get("sortBy") != "IndexNumber" {
			t.Errorf("query = %v", q)
		}
		one, two := 1, 2
		_ = json.NewEncoder(w).Encode(itemsResult{Items: []baseItemDto{
			{ID: "t1", Type: "Audio", Name: "First", IndexNumber: &one, RunTimeTicks: 1_800_000_000,
				UserData: &userDataDto{PlaybackPositionTicks: 600_000_000}},
			{ID: "t2", Type: "Audio", Name: "Second", IndexNumber: &two},
		}})
	}))

	leaves, err := c.ExpandContainer(context.Background(), catalog.PlayableItem{ID: "alb1", Kind: catalog.KindAlbum})
	if err != nil {
		t.Fatal(err)
	}
	if len(leaves) != 2 {
		t.Fatalf("len(leaves) = %d, want 2", len(leaves))
	}
	if leaves[0].TrackNumber != 1 || leaves[1].TrackNumber != 2 {
		t.Errorf("track numbers = %d, %d", leaves[0].TrackNumber, leaves[1].TrackNumber)
	}
	if leaves[0].ResumeTicks != 600_000_000 {
		t.Errorf("ResumeTicks = %d, want 600000000", leaves[0].ResumeTicks)
	}
}

func TestExpandContainer_Series(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Shows/s1/Episodes" {
			t.Errorf("path = %s, want /Shows/s1/Episodes", r.URL.Path)
		}
		if r.URL.Query().Get("isMissing") != "false" {
			t.Error("missing episodes not excluded")
		}
		ep, season := 3, 2
		_ = json.NewEncoder(w).Encode(itemsResult{Items: []baseItemDto{
			{ID: "e1", Type: "Episode", Name: "Pilot", SeriesName: "Show",
				IndexNumber: &ep, ParentIndexNumber: &season},
		}})
	}))

	leaves, err := c.ExpandContainer(context.Background(), catalog.PlayableItem{ID: "s1", Kind: catalog.KindSeries})
	if err != nil {
		t.Fatal(err)
	}
	if len(leaves) != 1 {
		t.Fatalf("len(leaves) = %d, want 1", len(leaves))
	}
	if leaves[0].SeasonNumber != 2 || leaves[0].EpisodeNumber != 3 {
		t.Errorf("numbering = S%dE%d, want S2E3", leaves[0].SeasonNumber, leaves[0].EpisodeNumber)
	}
}

func TestSegments(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/MediaSegments/e1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(mediaSegmentsResult{Items: []mediaSegmentDto{
			{ID: "seg1", Type: "Intro", StartTicks: 0, EndTicks: 900_000_000},
			{ID: "seg2", Type: "Outro", StartTicks: 12_000_000_000, EndTicks: 13_000_000_000},
		}})
	}))

	segs, err := c.Segments(context.Background(), "e1")
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 {
		t.Fatalf("len(segs) = %d, want 2", len(segs))
	}
	if segs[0].Type != catalog.SegmentIntro || segs[1].Type != catalog.SegmentOutro {
		t.Errorf("segment types = %s, %s", segs[0].Type, segs[1].Type)
	}
}

func TestReportStop_PostsPosition(t *testing.T) {
	var got playstateBody
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Sessions/Playing/Stopped" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	info := catalog.PlaybackInfo{ItemID: "a1", MediaSourceID: "ms-1", PlaySessionID: "ps-9"}
	if err := c.ReportStop(context.Background(), info, 4_200_000_000); err != nil {
		t.Fatal(err)
	}
	if got.ItemID != "a1" || got.PlaySessionID != "ps-9" {
		t.Errorf("body = %+v", got)
	}
	if got.PositionTicks != 4_200_000_000 {
		t.Errorf("PositionTicks = %d, want 4200000000", got.PositionTicks)
	}
}

package catalog

// PlayMethod is how the server will deliver the stream.
type PlayMethod string

const (
	PlayMethodDirect    PlayMethod = "DirectPlay"
	PlayMethodRemux     PlayMethod = "Remux"
	PlayMethodTranscode PlayMethod = "Transcode"
)

// MediaSource is the concrete playable descriptor a negotiation resolves to.
type MediaSource struct {
	ID            string
	ItemID        string
	Method        PlayMethod
	Container     string
	StreamURL     string
	Bitrate       int64
	VideoTrack    int
	AudioTrack    int
	SubtitleTrack int // TrackNone when subtitles are off

	// PlaySessionID is the opaque server-side handle for this playback;
	// every progress report carries it.
	PlaySessionID string
}

// SegmentType classifies a skippable range within an item.
type SegmentType string

const (
	SegmentIntro      SegmentType = "Intro"
	SegmentOutro      SegmentType = "Outro"
	SegmentRecap      SegmentType = "Recap"
	SegmentCommercial SegmentType = "Commercial"
	SegmentPreview    SegmentType = "Preview"
)

// Segment is a skippable time range, immutable once fetched. Per-item
// segment lists are sorted ascending by StartTicks.
type Segment struct {
	Type       SegmentType
	StartTicks Ticks
	EndTicks   Ticks
}

// Contains reports whether pos falls in the segment's [start, end) range.
func (s Segment) Contains(pos Ticks) bool {
	return pos >= s.StartTicks && pos < s.EndTicks
}

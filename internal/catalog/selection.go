package catalog

// TrackAuto and TrackNone are the sentinel values a TrackSelection uses for
// "let the item's default decide" and "no subtitle track".
const (
	TrackAuto = -1
	TrackNone = -2
)

// TrackSelection is the caller's desired stream choice for a negotiation.
// Video and audio accept TrackAuto; subtitle additionally accepts TrackNone.
type TrackSelection struct {
	Video    int
	Audio    int
	Subtitle int
}

// DefaultSelection returns a selection that resolves every track to the
// item's declared defaults, with subtitles off when the item declares none.
func DefaultSelection() TrackSelection {
	return TrackSelection{Video: TrackAuto, Audio: TrackAuto, Subtitle: TrackAuto}
}

// Resolve maps auto sentinels to the item's default stream indices.
// A subtitle selection of TrackAuto becomes TrackNone when the item has no
// subtitle streams at all.
func (sel TrackSelection) Resolve(item PlayableItem) TrackSelection {
	out := sel
	if out.Video == TrackAuto {
		out.Video = item.DefaultStream(StreamVideo)
	}
	if out.Audio == TrackAuto {
		if idx := item.DefaultStream(StreamAudio); idx >= 0 {
			out.Audio = idx
		} else {
			out.Audio = 0
		}
	}
	if out.Subtitle == TrackAuto {
		if idx := item.DefaultStream(StreamSubtitle); idx >= 0 {
			out.Subtitle = idx
		} else {
			out.Subtitle = TrackNone
		}
	}
	return out
}

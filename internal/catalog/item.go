package catalog

// Kind identifies what a catalog item is. Container kinds resolve to an
// ordered list of leaf items before anything can play.
type Kind string

const (
	KindMovie   Kind = "Movie"
	KindEpisode Kind = "Episode"
	KindAudio   Kind = "Audio"
	KindVideo   Kind = "Video"
	KindPhoto   Kind = "Photo"

	KindSeries     Kind = "Series"
	KindSeason     Kind = "Season"
	KindAlbum      Kind = "MusicAlbum"
	KindArtist     Kind = "MusicArtist"
	KindPlaylist   Kind = "Playlist"
	KindBoxSet     Kind = "BoxSet"
	KindPhotoAlbum Kind = "PhotoAlbum"
)

// IsContainer returns true for kinds that expand into leaf items.
func (k Kind) IsContainer() bool {
	switch k {
	case KindSeries, KindSeason, KindAlbum, KindArtist, KindPlaylist, KindBoxSet, KindPhotoAlbum:
		return true
	default:
		return false
	}
}

// StreamType classifies a media stream descriptor.
type StreamType string

const (
	StreamVideo    StreamType = "Video"
	StreamAudio    StreamType = "Audio"
	StreamSubtitle StreamType = "Subtitle"
)

// MediaStream describes one stream available inside an item's media source,
// in the order the server declares them.
type MediaStream struct {
	Index        int
	Type         StreamType
	Codec        string
	DisplayTitle string
	Language     string
	IsDefault    bool
}

// PlayableItem is an immutable snapshot of a catalog item. The engine never
// mutates one; a fresh snapshot comes from the catalog on every fetch.
type PlayableItem struct {
	ID            string
	Kind          Kind
	Name          string
	SeriesName    string
	SeasonNumber  int
	EpisodeNumber int
	Artist        string
	Album         string
	TrackNumber   int

	RuntimeTicks  Ticks
	ResumeTicks   Ticks // last known playback position, 0 if never played
	MediaSourceID string
	Streams       []MediaStream

	ImageTag string // artwork cache tag, empty if the item has no image
}

// DisplayTitle returns the item name as shown to the user, with episode
// numbering folded in for series content.
func (it PlayableItem) DisplayTitle() string {
	if it.SeriesName != "" {
		return it.SeriesName + " - " + it.Name
	}
	return it.Name
}

// DefaultStream returns the index of the default stream of the given type,
// falling back to the first stream of that type, or -1 if none exists.
func (it PlayableItem) DefaultStream(st StreamType) int {
	first := -1
	for _, s := range it.Streams {
		if s.Type != st {
			continue
		}
		if s.IsDefault {
			return s.Index
		}
		if first == -1 {
			first = s.Index
		}
	}
	return first
}

// HasStream reports whether the item declares a stream with the given
// index and type.
func (it PlayableItem) HasStream(index int, st StreamType) bool {
	for _, s := range it.Streams {
		if s.Index == index && s.Type == st {
			return true
		}
	}
	return false
}

package jellyfin

import (
	"github.com/avrillon/cadenza/internal/catalog"
)

// Wire DTOs. Field names follow the server's JSON casing.

type userDataDto struct {
	PlaybackPositionTicks int64 `json:"PlaybackPositionTicks"`
	Played                bool  `json:"Played"`
}

type mediaStreamDto struct {
	Index        int    `json:"Index"`
	Type         string `json:"Type"`
	Codec        string `json:"Codec"`
	DisplayTitle string `json:"DisplayTitle"`
	Language     string `json:"Language"`
	IsDefault    bool   `json:"IsDefault"`
}

type baseItemDto struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	SeriesName        string            `json:"SeriesName"`
	SeriesID          string            `json:"SeriesId"`
	SeasonID          string            `json:"SeasonId"`
	ParentID          string            `json:"ParentId"`
	IndexNumber       *int              `json:"IndexNumber"`
	ParentIndexNumber *int              `json:"ParentIndexNumber"`
	RunTimeTicks      int64             `json:"RunTimeTicks"`
	UserData          *userDataDto      `json:"UserData"`
	MediaStreams      []mediaStreamDto  `json:"MediaStreams"`
	MediaSources      []mediaSourceDto  `json:"MediaSources"`
	ImageTags         map[string]string `json:"ImageTags"`
	AlbumArtist       string            `json:"AlbumArtist"`
	Album             string            `json:"Album"`
	ProductionYear    int               `json:"ProductionYear"`
}

type itemsResult struct {
	Items            []baseItemDto `json:"Items"`
	TotalRecordCount int           `json:"TotalRecordCount"`
}

type mediaSourceDto struct {
	ID                      string           `json:"Id"`
	Container               string           `json:"Container"`
	Bitrate                 int64            `json:"Bitrate"`
	ETag                    string           `json:"ETag"`
	SupportsDirectPlay      bool             `json:"SupportsDirectPlay"`
	SupportsDirectStream    bool             `json:"SupportsDirectStream"`
	SupportsTranscoding     bool             `json:"SupportsTranscoding"`
	TranscodingURL          string           `json:"TranscodingUrl"`
	DefaultAudioStreamIndex *int             `json:"DefaultAudioStreamIndex"`
	MediaStreams            []mediaStreamDto `json:"MediaStreams"`
}

type playbackInfoResponse struct {
	MediaSources  []mediaSourceDto `json:"MediaSources"`
	PlaySessionID string           `json:"PlaySessionId"`
	ErrorCode     string           `json:"ErrorCode"`
}

type mediaSegmentDto struct {
	ID         string `json:"Id"`
	Type       string `json:"Type"`
	StartTicks int64  `json:"StartTicks"`
	EndTicks   int64  `json:"EndTicks"`
}

type mediaSegmentsResult struct {
	Items []mediaSegmentDto `json:"Items"`
}

func toStreams(dtos []mediaStreamDto) []catalog.MediaStream {
	if len(dtos) == 0 {
		return nil
	}
	out := make([]catalog.MediaStream, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, catalog.MediaStream{
			Index:        d.Index,
			Type:         catalog.StreamType(d.Type),
			Codec:        d.Codec,
			DisplayTitle: d.DisplayTitle,
			Language:     d.Language,
			IsDefault:    d.IsDefault,
		})
	}
	return out
}

func toItem(d baseItemDto) catalog.PlayableItem {
	item := catalog.PlayableItem{
		ID:           d.ID,
		Kind:         catalog.Kind(d.Type),
		Name:         d.Name,
		SeriesName:   d.SeriesName,
		Artist:       d.AlbumArtist,
		Album:        d.Album,
		RuntimeTicks: catalog.Ticks(d.RunTimeTicks),
		Streams:      toStreams(d.MediaStreams),
	}
	if d.IndexNumber != nil {
		switch item.Kind {
		case catalog.KindEpisode:
			item.EpisodeNumber = *d.IndexNumber
		case catalog.KindAudio:
			item.TrackNumber = *d.IndexNumber
		}
	}
	if d.ParentIndexNumber != nil && item.Kind == catalog.KindEpisode {
		item.SeasonNumber = *d.ParentIndexNumber
	}
	if d.UserData != nil {
		item.ResumeTicks = catalog.Ticks(d.UserData.PlaybackPositionTicks)
	}
	if len(d.MediaSources) > 0 {
		item.MediaSourceID = d.MediaSources[0].ID
	}
	if tag, ok := d.ImageTags["Primary"]; ok {
		item.ImageTag = tag
	}
	return item
}

func toItems(dtos []baseItemDto) []catalog.PlayableItem {
	out := make([]catalog.PlayableItem, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, toItem(d))
	}
	return out
}

func toSegments(dtos []mediaSegmentDto) []catalog.Segment {
	if len(dtos) == 0 {
		return nil
	}
	out := make([]catalog.Segment, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, catalog.Segment{
			Type:       catalog.SegmentType(d.Type),
			StartTicks: catalog.Ticks(d.StartTicks),
			EndTicks:   catalog.Ticks(d.EndTicks),
		})
	}
	return out
}

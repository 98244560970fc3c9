package jellyfin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/avrillon/cadenza/internal/catalog"
)

const itemFields = "MediaSources,MediaStreams,Chapters"

// ExpandContainer resolves a container item into its ordered leaves.
// Leaf items come back as a single-element slice.
func (c *Client) ExpandContainer(ctx context.Context, item catalog.PlayableItem) ([]catalog.PlayableItem, error) {
	params := url.Values{}
	params.Set("userId", c.userID)
	params.Set("fields", itemFields)
	params.Set("sortOrder", "Ascending")
	params.Set("enableUserData", "true")

	switch item.Kind {
	case catalog.KindSeries:
		return c.episodes(ctx, item.ID)
	case catalog.KindSeason, catalog.KindAlbum, catalog.KindPlaylist, catalog.KindBoxSet:
		params.Set("parentId", item.ID)
		params.Set("sortBy", "IndexNumber")
	case catalog.KindArtist:
		params.Set("artistIds", item.ID)
		params.Set("recursive", "true")
		params.Set("includeItemTypes", "Audio")
		params.Set("sortBy", "PremiereDate,ProductionYear,SortName")
	case catalog.KindPhotoAlbum:
		params.Set("parentId", item.ID)
		params.Set("filters", "IsNotFolder")
		params.Set("mediaTypes", "Photo")
		params.Set("sortBy", "SortName")
	default:
		// Already a leaf; refetch for fresh streams and resume position.
		params.Set("ids", item.ID)
	}

	var result itemsResult
	if err := c.getJSON(ctx, "/Items", params, &result); err != nil {
		return nil, &catalog.NegotiationError{Reason: catalog.ReasonUnreachable, ItemID: item.ID, Err: err}
	}
	return toItems(result.Items), nil
}

// episodes lists a series' episodes across all seasons.
func (c *Client) episodes(ctx context.Context, seriesID string) ([]catalog.PlayableItem, error) {
	params := url.Values{}
	params.Set("userId", c.userID)
	params.Set("fields", itemFields)
	params.Set("enableUserData", "true")
	params.Set("isMissing", "false")

	var result itemsResult
	if err := c.getJSON(ctx, "/Shows/"+seriesID+"/Episodes", params, &result); err != nil {
		return nil, &catalog.NegotiationError{Reason: catalog.ReasonUnreachable, ItemID: seriesID, Err: err}
	}
	return toItems(result.Items), nil
}

// deviceProfile advertises what this client can decode natively. The
// server transcodes to mp3 anything outside it.
func deviceProfile() map[string]any {
	return map[string]any{
		"MaxStreamingBitrate": 120_000_000,
		"DirectPlayProfiles": []map[string]any{
			{"Type": "Audio", "Container": "mp3", "AudioCodec": "mp3"},
			{"Type": "Audio", "Container": "flac", "AudioCodec": "flac"},
			{"Type": "Audio", "Container": "ogg", "AudioCodec": "vorbis"},
			{"Type": "Audio", "Container": "wav", "AudioCodec": "pcm"},
		},
		"TranscodingProfiles": []map[string]any{
			{
				"Type":       "Audio",
				"Container":  "mp3",
				"AudioCodec": "mp3",
				"Context":    "Streaming",
				"Protocol":   "http",
			},
		},
		"CodecProfiles":    []any{},
		"SubtitleProfiles": []any{},
	}
}

// Negotiate posts playback info for a leaf item and maps the server's
// chosen media source to a stream URL.
func (c *Client) Negotiate(ctx context.Context, item catalog.PlayableItem, sel catalog.TrackSelection, startAt catalog.Ticks) (*catalog.MediaSource, error) {
	params := url.Values{}
	params.Set("userId", c.userID)
	if item.MediaSourceID != "" {
		params.Set("mediaSourceId", item.MediaSourceID)
	}
	if startAt > 0 {
		params.Set("startTimeTicks", strconv.FormatInt(int64(startAt), 10))
	}
	if sel.Audio >= 0 {
		params.Set("audioStreamIndex", strconv.Itoa(sel.Audio))
	}
	if sel.Subtitle == catalog.TrackNone {
		params.Set("subtitleStreamIndex", "-1")
	} else if sel.Subtitle >= 0 {
		params.Set("subtitleStreamIndex", strconv.Itoa(sel.Subtitle))
	}

	body := map[string]any{"DeviceProfile": deviceProfile()}
	var info playbackInfoResponse
	if err := c.postJSON(ctx, "/Items/"+item.ID+"/PlaybackInfo", params, body, &info); err != nil {
		return nil, &catalog.NegotiationError{Reason: catalog.ReasonUnreachable, ItemID: item.ID, Err: err}
	}
	if info.ErrorCode != "" {
		return nil, &catalog.NegotiationError{
			Reason: catalog.ReasonNoSource,
			ItemID: item.ID,
			Err:    fmt.Errorf("server error code %s", info.ErrorCode),
		}
	}
	if len(info.MediaSources) == 0 {
		return nil, &catalog.NegotiationError{Reason: catalog.ReasonNoSource, ItemID: item.ID}
	}

	dto := info.MediaSources[0]
	src := &catalog.MediaSource{
		ID:            dto.ID,
		ItemID:        item.ID,
		Container:     dto.Container,
		Bitrate:       dto.Bitrate,
		AudioTrack:    sel.Audio,
		SubtitleTrack: sel.Subtitle,
		VideoTrack:    sel.Video,
		PlaySessionID: info.PlaySessionID,
	}

	switch {
	case dto.SupportsTranscoding && dto.TranscodingURL != "":
		src.Method = catalog.PlayMethodTranscode
		src.Container = "mp3"
		src.StreamURL = c.baseURL + dto.TranscodingURL
	case item.Kind == catalog.KindAudio:
		src.Method = catalog.PlayMethodDirect
		src.StreamURL = c.audioStreamURL(item.ID, info.PlaySessionID)
	default:
		src.Method = catalog.PlayMethodDirect
		src.StreamURL = c.videoStreamURL(dto, startAt)
	}
	return src, nil
}

// audioStreamURL builds the universal audio endpoint URL: the server
// direct-streams containers the device profile lists and transcodes the
// rest to mp3.
func (c *Client) audioStreamURL(itemID, playSessionID string) string {
	params := url.Values{}
	params.Set("userId", c.userID)
	params.Set("deviceId", c.deviceID)
	params.Set("api_key", c.token)
	params.Set("container", "mp3,flac,ogg|vorbis,wav")
	params.Set("transcodingContainer", "mp3")
	params.Set("transcodingProtocol", "http")
	params.Set("audioCodec", "mp3")
	if playSessionID != "" {
		params.Set("playSessionId", playSessionID)
	}
	params.Set("startTimeTicks", "0")
	params.Set("enableRemoteMedia", "false")
	return fmt.Sprintf("%s/Audio/%s/universal?%s", c.baseURL, itemID, params.Encode())
}

func (c *Client) videoStreamURL(dto mediaSourceDto, startAt catalog.Ticks) string {
	params := url.Values{}
	params.Set("Static", "true")
	params.Set("mediaSourceId", dto.ID)
	params.Set("deviceId", c.deviceID)
	params.Set("api_key", c.token)
	if dto.ETag != "" {
		params.Set("tag", dto.ETag)
	}
	if startAt > 0 {
		params.Set("startTimeTicks", strconv.FormatInt(int64(startAt), 10))
	}
	return fmt.Sprintf("%s/Videos/%s/stream.%s?%s", c.baseURL, dto.ID, dto.Container, params.Encode())
}

// Segments fetches the server-annotated media segments for an item.
func (c *Client) Segments(ctx context.Context, itemID string) ([]catalog.Segment, error) {
	var result mediaSegmentsResult
	if err := c.getJSON(ctx, "/MediaSegments/"+itemID, nil, &result); err != nil {
		return nil, fmt.Errorf("media segments: %w", err)
	}
	return toSegments(result.Items), nil
}

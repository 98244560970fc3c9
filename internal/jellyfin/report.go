package jellyfin

import (
	"context"
	"fmt"

	"github.com/avrillon/cadenza/internal/catalog"
)

type playstateBody struct {
	ItemID        string `json:"ItemId"`
	MediaSourceID string `json:"MediaSourceId,omitempty"`
	PlaySessionID string `json:"PlaySessionId,omitempty"`
	PositionTicks int64  `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused"`
	PlayMethod    string `json:"PlayMethod,omitempty"`
	CanSeek       bool   `json:"CanSeek"`
}

func playstate(info catalog.PlaybackInfo, pos catalog.Ticks) playstateBody {
	return playstateBody{
		ItemID:        info.ItemID,
		MediaSourceID: info.MediaSourceID,
		PlaySessionID: info.PlaySessionID,
		PositionTicks: int64(pos),
		CanSeek:       true,
	}
}

// ReportStart tells the server a play session began.
func (c *Client) ReportStart(ctx context.Context, info catalog.PlaybackInfo) error {
	if err := c.postJSON(ctx, "/Sessions/Playing", nil, playstate(info, 0), nil); err != nil {
		return fmt.Errorf("report start: %w", err)
	}
	return nil
}

// ReportProgress sends a progress heartbeat for an active session.
func (c *Client) ReportProgress(ctx context.Context, info catalog.PlaybackInfo, pos catalog.Ticks) error {
	if err := c.postJSON(ctx, "/Sessions/Playing/Progress", nil, playstate(info, pos), nil); err != nil {
		return fmt.Errorf("report progress: %w", err)
	}
	return nil
}

// ReportStop sends the final position for a session being torn down.
// The server persists it as the item's resume point.
func (c *Client) ReportStop(ctx context.Context, info catalog.PlaybackInfo, pos catalog.Ticks) error {
	if err := c.postJSON(ctx, "/Sessions/Playing/Stopped", nil, playstate(info, pos), nil); err != nil {
		return fmt.Errorf("report stop: %w", err)
	}
	return nil
}

package catalog

import "context"

// PlaybackInfo identifies one playback to the reporting collaborator.
type PlaybackInfo struct {
	ItemID        string
	MediaSourceID string
	PlaySessionID string
}

// Reporter is the playback reporting collaborator. All calls are
// fire-and-forget from the engine's point of view: failures are logged,
// never retried, and never block a state transition.
type Reporter interface {
	ReportStart(ctx context.Context, info PlaybackInfo) error
	ReportProgress(ctx context.Context, info PlaybackInfo, pos Ticks) error
	ReportStop(ctx context.Context, info PlaybackInfo, pos Ticks) error
}

// NopReporter discards all reports. Used when no reporting collaborator is
// configured.
type NopReporter struct{}

func (NopReporter) ReportStart(context.Context, PlaybackInfo) error { return nil }

func (NopReporter) ReportProgress(context.Context, PlaybackInfo, Ticks) error { return nil }

func (NopReporter) ReportStop(context.Context, PlaybackInfo, Ticks) error { return nil }

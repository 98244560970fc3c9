package render

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/avrillon/cadenza/internal/catalog"
)

const (
	speakerBufferDur = time.Second / 10
	progressInterval = 500 * time.Millisecond
	downloadTimeout  = 10 * time.Minute
)

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// BeepPrimitive renders an audio stream through the speaker. The remote
// stream is spooled to a temp file first so the decoder can seek; Load
// emits a waiting event for the duration of the spool.
type BeepPrimitive struct {
	mu        sync.Mutex
	container string
	file      *os.File
	streamer  beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	volume    *effects.Volume
	vol       float64
	muted     bool
	playing   bool
	closed    bool
	events    chan Event
	stopTick  chan struct{}

	httpClient *http.Client
}

var _ Primitive = (*BeepPrimitive)(nil)

// NewBeepPrimitive creates a primitive decoding the given container format.
// Supported containers: mp3, flac, ogg, wav.
func NewBeepPrimitive(container string) (*BeepPrimitive, error) {
	switch normalizeContainer(container) {
	case "mp3", "flac", "ogg", "wav":
	default:
		return nil, fmt.Errorf("unsupported container: %s", container)
	}
	return &BeepPrimitive{
		container:  normalizeContainer(container),
		vol:        1.0,
		events:     make(chan Event, 32),
		stopTick:   make(chan struct{}),
		httpClient: &http.Client{Timeout: downloadTimeout},
	}, nil
}

// BeepFactory is a render.Factory producing speaker-backed primitives.
func BeepFactory(container string) (Primitive, error) {
	return NewBeepPrimitive(container)
}

func normalizeContainer(c string) string {
	c = strings.ToLower(strings.TrimPrefix(c, "."))
	if c == "oga" || c == "vorbis" {
		return "ogg"
	}
	return c
}

// Load fetches the stream and prepares the decoder.
func (p *BeepPrimitive) Load(url string) error {
	p.emit(Event{Kind: EventWaiting})

	f, err := p.spool(url)
	if err != nil {
		return err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch p.container {
	case "mp3":
		streamer, format, err = mp3.Decode(f)
	case "flac":
		streamer, format, err = flac.Decode(f)
	case "ogg":
		streamer, format, err = vorbis.Decode(f)
	case "wav":
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("decode %s: %w", p.container, err)
	}

	speakerOnce.Do(func() {
		speakerRate = format.SampleRate
		speakerErr = speaker.Init(format.SampleRate, format.SampleRate.N(speakerBufferDur))
	})
	if speakerErr != nil {
		streamer.Close()
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("init speaker: %w", speakerErr)
	}

	p.mu.Lock()
	p.file = f
	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	p.volume = &effects.Volume{Streamer: p.resampled(), Base: 2}
	p.applyVolumeLocked()
	p.mu.Unlock()

	return nil
}

// spool downloads url to a temp file and returns it, positioned at the
// start.
func (p *BeepPrimitive) spool(url string) (*os.File, error) {
	resp, err := p.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch stream: status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "cadenza-stream-*."+p.container)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("spool stream: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return f, nil
}

// resampled adapts the decoded stream to the speaker's sample rate when
// the speaker was initialized for a different track.
func (p *BeepPrimitive) resampled() beep.Streamer {
	if p.format.SampleRate == speakerRate {
		return p.ctrl
	}
	return beep.Resample(4, p.format.SampleRate, speakerRate, p.ctrl)
}

func (p *BeepPrimitive) Play() {
	p.mu.Lock()
	if p.closed || p.ctrl == nil {
		p.mu.Unlock()
		return
	}
	first := !p.playing && p.ctrl.Paused
	p.playing = true
	p.mu.Unlock()

	if first {
		speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
			p.emit(Event{Kind: EventEnded})
		})))
		go p.progressLoop()
	}

	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.emit(Event{Kind: EventPlaying})
}

func (p *BeepPrimitive) Pause() {
	p.mu.Lock()
	if p.closed || p.ctrl == nil {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.emit(Event{Kind: EventPaused})
}

func (p *BeepPrimitive) SeekTo(pos catalog.Ticks) {
	p.mu.Lock()
	streamer := p.streamer
	format := p.format
	p.mu.Unlock()
	if streamer == nil {
		return
	}

	p.emit(Event{Kind: EventSeeking})
	n := format.SampleRate.N(pos.Duration())
	if n >= streamer.Len() {
		n = streamer.Len() - 1
	}
	if n < 0 {
		n = 0
	}
	speaker.Lock()
	err := streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		p.emit(Event{Kind: EventError, Err: fmt.Errorf("seek: %w", err)})
		return
	}
	p.emit(Event{Kind: EventSeeked, Position: pos})
}

func (p *BeepPrimitive) Position() catalog.Ticks {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return catalog.TicksFromDuration(p.format.SampleRate.D(p.streamer.Position()))
}

func (p *BeepPrimitive) Duration() catalog.Ticks {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return catalog.TicksFromDuration(p.format.SampleRate.D(p.streamer.Len()))
}

func (p *BeepPrimitive) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.vol = v
	p.applyVolumeLocked()
}

func (p *BeepPrimitive) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
	p.applyVolumeLocked()
}

// applyVolumeLocked maps the linear [0,1] volume onto the effect's
// exponential scale. Callers hold p.mu.
func (p *BeepPrimitive) applyVolumeLocked() {
	if p.volume == nil {
		return
	}
	speaker.Lock()
	p.volume.Silent = p.muted || p.vol == 0
	// 0..1 maps to -5..0 in base-2 exponent space.
	p.volume.Volume = (p.vol - 1) * 5
	speaker.Unlock()
}

func (p *BeepPrimitive) Events() <-chan Event {
	return p.events
}

func (p *BeepPrimitive) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	streamer := p.streamer
	file := p.file
	p.streamer = nil
	p.file = nil
	p.mu.Unlock()

	close(p.stopTick)
	speaker.Clear()
	if streamer != nil {
		streamer.Close()
	}
	if file != nil {
		file.Close()
		os.Remove(file.Name())
	}
	close(p.events)
}

// progressLoop emits periodic time updates while the primitive lives.
func (p *BeepPrimitive) progressLoop() {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopTick:
			return
		case <-ticker.C:
			p.mu.Lock()
			paused := p.ctrl == nil || p.ctrl.Paused
			p.mu.Unlock()
			if paused {
				continue
			}
			p.emit(Event{Kind: EventTimeUpdate, Position: p.Position()})
		}
	}
}

// emit delivers an event without blocking; stale consumers drop updates.
func (p *BeepPrimitive) emit(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.events <- e:
	default:
	}
}

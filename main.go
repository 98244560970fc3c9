package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
	"github.com/avrillon/cadenza/internal/config"
	"github.com/avrillon/cadenza/internal/icons"
	"github.com/avrillon/cadenza/internal/jellyfin"
	"github.com/avrillon/cadenza/internal/lastfm"
	"github.com/avrillon/cadenza/internal/logging"
	"github.com/avrillon/cadenza/internal/mpris"
	"github.com/avrillon/cadenza/internal/negotiate"
	"github.com/avrillon/cadenza/internal/notify"
	"github.com/avrillon/cadenza/internal/queue"
	"github.com/avrillon/cadenza/internal/render"
	"github.com/avrillon/cadenza/internal/report"
	"github.com/avrillon/cadenza/internal/scrobble"
	"github.com/avrillon/cadenza/internal/segments"
	"github.com/avrillon/cadenza/internal/session"
	"github.com/avrillon/cadenza/internal/state"
	"github.com/avrillon/cadenza/internal/stderr"
	"github.com/avrillon/cadenza/internal/tui"
	"github.com/avrillon/cadenza/internal/upnext"
)

func main() {
	lastfmAuth := flag.Bool("lastfm-auth", false, "run the Last.fm authorization flow and exit")
	flag.Parse()

	if err := run(*lastfmAuth); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(lastfmAuth bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Configure(logging.Config{Level: cfg.LogLevel})
	log := logging.Base()
	icons.Init(cfg.Icons)

	stateMgr, err := state.Open()
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer stateMgr.Close()

	if lastfmAuth {
		return runLastfmAuth(cfg, stateMgr)
	}

	if !cfg.HasServerConfig() {
		return fmt.Errorf("no server configured: set server.url, server.token and server.user_id in config.toml")
	}

	deviceID, err := stateMgr.DeviceID()
	if err != nil {
		return fmt.Errorf("device id: %w", err)
	}

	deviceName := cfg.Server.DeviceName
	if deviceName == "" {
		if host, err := os.Hostname(); err == nil {
			deviceName = host
		} else {
			deviceName = "cadenza"
		}
	}

	client := jellyfin.NewClient(jellyfin.Options{
		URL:        cfg.Server.URL,
		Token:      cfg.Server.Token,
		UserID:     cfg.Server.UserID,
		DeviceID:   deviceID,
		DeviceName: deviceName,
		Log:        logging.WithComponent("jellyfin"),
	})

	segments.UpNextFallbackThreshold = catalog.TicksFromDuration(cfg.UpNextThreshold())

	// Audio decoders write ALSA noise straight to fd 2, which would corrupt
	// the TUI. Capture it and route it through the log instead.
	if err := stderr.Start(); err != nil {
		log.Warn().Err(err).Msg("stderr capture unavailable")
	} else {
		defer stderr.Stop()
		audioLog := logging.WithComponent("audio")
		go func() {
			for line := range stderr.Messages {
				audioLog.Debug().Msg(line)
			}
		}()
	}

	neg := negotiate.New(client, cfg.NegotiationTimeout(), logging.WithComponent("negotiate"))
	svc := session.New(queue.New(), neg, render.BeepFactory, client, logging.WithComponent("session"))
	defer svc.Close()

	restoreState(svc, stateMgr, cfg, log)
	defer persistState(svc, stateMgr, log)

	bridge := report.New(svc, client, cfg.HeartbeatInterval(), logging.WithComponent("report"))
	go bridge.Run()
	defer bridge.Close()

	advancer := upnext.New(svc, logging.WithComponent("upnext"))
	go advancer.Run()
	defer advancer.Close()

	if cfg.HasLastfmConfig() {
		if scrobbler := startScrobbler(svc, cfg, stateMgr, log); scrobbler != nil {
			defer scrobbler.Close()
		}
	}

	if adapter, err := mpris.New(svc); err != nil {
		log.Warn().Err(err).Msg("mpris unavailable")
	} else {
		defer adapter.Close()
	}

	notifier, err := notify.New()
	if err != nil {
		log.Warn().Err(err).Msg("desktop notifications unavailable")
	} else {
		watcher := notify.NewWatcher(svc, notifier, log)
		go watcher.Run()
		defer watcher.Close()
	}

	return tui.Run(svc, log)
}

// restoreState applies the persisted volume, loop flag and queue snapshot.
func restoreState(svc session.Service, stateMgr *state.Manager, cfg *config.Config, log zerolog.Logger) {
	if ps, err := stateMgr.GetPlayback(); err != nil {
		log.Warn().Err(err).Msg("restore playback state")
	} else {
		svc.SetVolume(ps.Volume)
		svc.SetMuted(ps.Muted)
		svc.SetLoop(ps.Loop || cfg.Playback.Loop)
	}

	qs, err := stateMgr.GetQueue()
	if err != nil {
		log.Warn().Err(err).Msg("restore queue")
		return
	}
	if len(qs.Items) == 0 {
		return
	}
	index := min(max(qs.CurrentIndex, 0), len(qs.Items)-1)
	if err := svc.SetQueue(qs.Items, index); err != nil {
		log.Warn().Err(err).Msg("restore queue")
	}
}

func persistState(svc session.Service, stateMgr *state.Manager, log zerolog.Logger) {
	err := stateMgr.SavePlayback(state.PlaybackState{
		Volume: svc.Volume(),
		Muted:  svc.Muted(),
		Loop:   svc.Loop(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("save playback state")
	}

	err = stateMgr.SaveQueue(state.QueueState{
		CurrentIndex: svc.QueueIndex(),
		Items:        svc.QueueItems(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("save queue")
	}
}

func startScrobbler(svc session.Service, cfg *config.Config, stateMgr *state.Manager, log zerolog.Logger) *scrobble.Scrobbler {
	sess, err := stateMgr.GetLastfmSession()
	if err != nil {
		log.Warn().Err(err).Msg("load lastfm session")
		return nil
	}
	if sess == nil {
		log.Info().Msg("lastfm configured but not authorized, run with -lastfm-auth")
		return nil
	}

	api := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	api.SetSessionKey(sess.SessionKey)

	scrobbler := scrobble.New(svc, api, stateMgr, logging.WithComponent("scrobble"))
	go scrobbler.Run()
	return scrobbler
}

// runLastfmAuth walks the user through the Last.fm authorization flow and
// stores the resulting session key.
func runLastfmAuth(cfg *config.Config, stateMgr *state.Manager) error {
	if !cfg.HasLastfmConfig() {
		return fmt.Errorf("lastfm not configured: set lastfm.api_key and lastfm.api_secret in config.toml")
	}

	api := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)

	authServer, err := lastfm.StartAuthServer()
	if err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}
	defer authServer.Shutdown()

	authURL := fmt.Sprintf(
		"https://www.last.fm/api/auth/?api_key=%s&cb=http://localhost:%d/callback",
		cfg.Lastfm.APIKey, lastfm.AuthCallbackPort,
	)
	fmt.Println("Authorize Cadenza in your browser:")
	fmt.Println("  " + authURL)
	if err := lastfm.OpenBrowser(authURL); err != nil {
		fmt.Println("(could not open browser automatically)")
	}

	var token string
	select {
	case token = <-authServer.TokenChan():
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timed out waiting for authorization")
	}
	if token == "" {
		return fmt.Errorf("authorization failed: no token received")
	}

	username, sessionKey, err := api.GetSession(token)
	if err != nil {
		return fmt.Errorf("exchange token: %w", err)
	}
	if err := stateMgr.SaveLastfmSession(username, sessionKey); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	fmt.Printf("Authorized as %s\n", username)
	return nil
}

// Package tui renders the interactive player surface: queue panel, player
// bar and key handling on top of a session service.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
	"github.com/avrillon/cadenza/internal/session"
)

const (
	barHeight    = 3
	statusHeight = 1

	seekStep   = 10 * time.Second
	volumeStep = 0.05
)

// Session event messages. One subscription channel maps to one msg type so
// Update stays a plain type switch.
type (
	stateMsg      session.StateChange
	itemMsg       session.ItemChange
	positionMsg   session.PositionChange
	queueMsg      session.QueueChange
	upNextMsg     session.UpNextChange
	queueEndedMsg struct{}
	sessionErrMsg session.ErrorEvent
	sessionGone   struct{}
)

// waitForEvent blocks on the subscription and converts the next event into
// a tea message. Re-issued after every handled event.
func waitForEvent(sub *session.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return stateMsg(e)
		case e := <-sub.ItemChanged:
			return itemMsg(e)
		case e := <-sub.PositionChanged:
			return positionMsg(e)
		case e := <-sub.QueueChanged:
			return queueMsg(e)
		case e := <-sub.UpNextChanged:
			return upNextMsg(e)
		case <-sub.QueueEnded:
			return queueEndedMsg{}
		case e := <-sub.Error:
			return sessionErrMsg(e)
		case <-sub.Done:
			return sessionGone{}
		}
	}
}

// Model is the root bubbletea model.
type Model struct {
	svc session.Service
	sub *session.Subscription
	log zerolog.Logger

	bar    barState
	panel  queuePanel
	width  int
	height int

	seekInput textinput.Model
	seeking   bool

	statusErr string
}

// New builds the root model and subscribes to the session.
func New(svc session.Service, log zerolog.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "m:ss"
	ti.CharLimit = 8
	ti.Width = 10

	m := Model{
		svc:       svc,
		sub:       svc.Subscribe(),
		log:       log.With().Str("component", "tui").Logger(),
		bar:       snapshotBar(svc),
		seekInput: ti,
	}
	m.panel.setItems(svc.QueueItems(), svc.QueueIndex())
	m.panel.loop = svc.Loop()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.sub)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.panel.setSize(msg.Width, msg.Height-barHeight-statusHeight)
		return m, nil

	case tea.KeyMsg:
		if m.seeking {
			return m.updateSeekInput(msg)
		}
		return m.handleKey(msg)

	case stateMsg:
		m.bar = snapshotBar(m.svc)
		if msg.Current != session.Error {
			m.statusErr = ""
		}
		return m, waitForEvent(m.sub)

	case itemMsg:
		m.bar = snapshotBar(m.svc)
		m.panel.playingIdx = msg.Index
		return m, waitForEvent(m.sub)

	case positionMsg:
		m.bar.Position = msg.Position
		m.bar.Duration = msg.Duration
		return m, waitForEvent(m.sub)

	case queueMsg:
		m.panel.setItems(msg.Items, msg.Index)
		return m, waitForEvent(m.sub)

	case upNextMsg:
		m.panel.upNextShown = msg.Visible
		m.panel.upNext = msg.Next
		return m, waitForEvent(m.sub)

	case queueEndedMsg:
		m.bar = snapshotBar(m.svc)
		return m, waitForEvent(m.sub)

	case sessionErrMsg:
		m.statusErr = fmt.Sprintf("%s: %v", msg.Operation, msg.Err)
		return m, waitForEvent(m.sub)

	case sessionGone:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case " ":
		m.report(m.svc.Toggle())
	case "n":
		m.report(m.svc.Next())
	case "p":
		m.report(m.svc.Previous())
	case "x":
		m.report(m.svc.Stop())

	case "j", "down":
		m.panel.moveCursor(1)
	case "k", "up":
		m.panel.moveCursor(-1)
	case "g":
		m.panel.cursorToStart()
	case "G":
		m.panel.cursorToEnd()
	case "enter":
		if len(m.panel.items) > 0 {
			m.report(m.svc.PlayQueueItem(m.panel.cursor))
		}
	case "d", "delete":
		if len(m.panel.items) > 0 {
			m.report(m.svc.RemoveAt(m.panel.cursor))
		}
	case "shift+j", "shift+down":
		if m.panel.cursor < len(m.panel.items)-1 {
			// Moving a row down one slot is lifting the row below it up.
			m.report(m.svc.Reorder(m.panel.cursor+1, m.panel.cursor))
			m.panel.moveCursor(1)
		}
	case "shift+k", "shift+up":
		if m.panel.cursor > 0 {
			m.report(m.svc.Reorder(m.panel.cursor, m.panel.cursor-1))
			m.panel.moveCursor(-1)
		}

	case "left":
		m.report(m.svc.SeekBy(-catalog.TicksFromDuration(seekStep)))
	case "right":
		m.report(m.svc.SeekBy(catalog.TicksFromDuration(seekStep)))
	case "o":
		m.seeking = true
		m.seekInput.SetValue("")
		return m, m.seekInput.Focus()

	case "+", "=":
		m.svc.SetVolume(min(m.svc.Volume()+volumeStep, 1.0))
		m.bar.Volume = m.svc.Volume()
	case "-":
		m.svc.SetVolume(max(m.svc.Volume()-volumeStep, 0))
		m.bar.Volume = m.svc.Volume()
	case "m":
		m.svc.SetMuted(!m.svc.Muted())
		m.bar.Muted = m.svc.Muted()

	case "r":
		m.svc.SetLoop(!m.svc.Loop())
		m.panel.loop = m.svc.Loop()
	case "s":
		m.svc.ShuffleUpcoming()
	case "tab":
		m.report(m.svc.SkipSegment())
	}

	return m, nil
}

func (m Model) updateSeekInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.seeking = false
		m.seekInput.Blur()
		return m, nil
	case "enter":
		m.seeking = false
		m.seekInput.Blur()
		pos, err := parseTimestamp(m.seekInput.Value())
		if err != nil {
			m.statusErr = err.Error()
			return m, nil
		}
		m.report(m.svc.SeekTo(pos))
		return m, nil
	}

	var cmd tea.Cmd
	m.seekInput, cmd = m.seekInput.Update(msg)
	return m, cmd
}

// report surfaces a control error in the status line. Errors also arrive
// through the subscription; this catches synchronous rejections.
func (m *Model) report(err error) {
	if err != nil {
		m.statusErr = err.Error()
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.panel.view())
	b.WriteString("\n")
	b.WriteString(renderPlayerBar(m.bar, m.width))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) statusLine() string {
	if m.seeking {
		return " seek to: " + m.seekInput.View()
	}

	left := " " + renderVolume(m.bar.Volume, m.bar.Muted)
	if info := sourceInfo(m.bar.Source); info != "" {
		left += "   " + subtleStyle.Render(info)
	}
	if m.statusErr != "" {
		left += "   " + errorStyle.Render(truncate(m.statusErr, m.width/2))
	}

	help := subtleStyle.Render("space play/pause · n/p skip · enter jump · q quit")
	return row(left, help+" ", m.width)
}

// parseTimestamp parses "m:ss", "h:mm:ss" or a bare seconds count.
func parseTimestamp(s string) (catalog.Ticks, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		total = total*60 + n
	}
	return catalog.TicksFromSeconds(int64(total)), nil
}

// Run drives the player surface until the user quits or the session closes.
func Run(svc session.Service, log zerolog.Logger) error {
	m := New(svc, log)
	defer svc.Unsubscribe(m.sub)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/avrillon/cadenza/internal/catalog"
	"github.com/avrillon/cadenza/internal/icons"
	"github.com/avrillon/cadenza/internal/session"
)

const (
	playSymbol   = "▶"
	pauseSymbol  = "⏸"
	bufferSymbol = "◌"

	minBarWidth = 10
)

// barState holds everything needed to render the player bar.
type barState struct {
	State    session.State
	Item     *catalog.PlayableItem
	Source   *catalog.MediaSource
	Position catalog.Ticks
	Duration catalog.Ticks
	Volume   float64
	Muted    bool
}

func snapshotBar(svc session.Service) barState {
	return barState{
		State:    svc.State(),
		Item:     svc.CurrentItem(),
		Source:   svc.MediaSource(),
		Position: svc.Position(),
		Duration: svc.Duration(),
		Volume:   svc.Volume(),
		Muted:    svc.Muted(),
	}
}

// renderPlayerBar renders the single-line player bar for the given width.
// Returns an idle placeholder when nothing is bound.
func renderPlayerBar(s barState, width int) string {
	innerWidth := max(width-6, 0)

	if s.Item == nil {
		content := subtleStyle.Render("Nothing playing")
		return barBorderStyle.Padding(0, 2).Width(width - 2).Render(content)
	}

	status := statusSymbol(s.State)
	title := s.Item.DisplayTitle()
	if title == "" {
		title = "Unknown"
	}
	info := itemInfo(*s.Item)
	trackNum := trackNumber(*s.Item)
	timeStr := fmt.Sprintf("%s / %s", formatTicks(s.Position), formatTicks(s.Duration))

	separator := "   "
	sepWidth := lipgloss.Width(separator)
	timeWidth := lipgloss.Width(timeStr)
	statusWidth := lipgloss.Width(status + "  ")
	trackNumSpace := 0
	if trackNum != "" {
		trackNumSpace = lipgloss.Width(trackNum) + sepWidth
	}

	titleWidth := lipgloss.Width(title)
	infoWidth := lipgloss.Width(info)
	availableForContent := innerWidth - statusWidth - timeWidth - sepWidth*2 - minBarWidth - trackNumSpace

	var styledTitle, styledInfo string
	var usedContentWidth int

	switch {
	case titleWidth+sepWidth+infoWidth <= availableForContent:
		styledTitle = titleStyle.Render(title)
		styledInfo = mutedStyle.Render(info)
		usedContentWidth = titleWidth + sepWidth + infoWidth
	case titleWidth+sepWidth <= availableForContent && info != "":
		maxInfo := availableForContent - titleWidth - sepWidth
		styledTitle = titleStyle.Render(title)
		styledInfo = mutedStyle.Render(truncate(info, maxInfo))
		usedContentWidth = titleWidth + sepWidth + maxInfo
	default:
		maxTitle := max(availableForContent, 10)
		styledTitle = titleStyle.Render(truncate(title, maxTitle))
		usedContentWidth = min(titleWidth, maxTitle)
	}

	barWidth := max(innerWidth-usedContentWidth-trackNumSpace-statusWidth-timeWidth-sepWidth*2, 5)

	var ratio float64
	if s.Duration > 0 {
		ratio = float64(s.Position) / float64(s.Duration)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)
	filledBar := progressFilledStyle.Render(strings.Repeat("━", filled))
	emptyBar := progressEmptyStyle.Render(strings.Repeat("─", barWidth-filled))

	var content strings.Builder
	content.WriteString(styledTitle)
	if styledInfo != "" {
		content.WriteString(separator)
		content.WriteString(styledInfo)
	}
	if trackNum != "" {
		content.WriteString(separator)
		content.WriteString(subtleStyle.Render(trackNum))
	}
	content.WriteString(separator)
	content.WriteString(status)
	content.WriteString("  ")
	content.WriteString(filledBar)
	content.WriteString(emptyBar)
	content.WriteString(separator)
	content.WriteString(mutedStyle.Render(timeStr))

	return barBorderStyle.Padding(0, 2).Width(width - 2).Render(content.String())
}

func statusSymbol(st session.State) string {
	switch st {
	case session.Playing:
		return playSymbol
	case session.Buffering, session.Seeking, session.Negotiating:
		return bufferSymbol
	default:
		return pauseSymbol
	}
}

// itemInfo renders the secondary line: artist and album for music, season
// and episode numbering for series content.
func itemInfo(item catalog.PlayableItem) string {
	if item.SeriesName != "" && item.SeasonNumber > 0 {
		return fmt.Sprintf("S%02dE%02d", item.SeasonNumber, item.EpisodeNumber)
	}
	var parts []string
	if item.Artist != "" {
		parts = append(parts, item.Artist)
	}
	if item.Album != "" {
		parts = append(parts, item.Album)
	}
	return strings.Join(parts, " · ")
}

func trackNumber(item catalog.PlayableItem) string {
	if item.TrackNumber > 0 {
		return strconv.Itoa(item.TrackNumber)
	}
	return ""
}

// sourceInfo describes the bound media source: "direct · mp3 · 320 kbps".
func sourceInfo(src *catalog.MediaSource) string {
	if src == nil {
		return ""
	}
	parts := []string{methodLabel(src.Method)}
	if src.Container != "" {
		parts = append(parts, src.Container)
	}
	if src.Bitrate > 0 {
		parts = append(parts, humanize.SI(float64(src.Bitrate), "bps"))
	}
	return strings.Join(parts, " · ")
}

func methodLabel(m catalog.PlayMethod) string {
	switch m {
	case catalog.PlayMethodDirect:
		return "direct"
	case catalog.PlayMethodRemux:
		return "remux"
	case catalog.PlayMethodTranscode:
		return "transcode"
	default:
		return strings.ToLower(string(m))
	}
}

// renderVolume renders the volume indicator, e.g. "vol 100%".
func renderVolume(volume float64, muted bool) string {
	pct := int(volume*100 + 0.5)
	icon := icons.Volume()
	if muted {
		icon = icons.VolumeMute()
	}
	return mutedStyle.Render(fmt.Sprintf("%s %3d%%", icon, pct))
}

func formatTicks(t catalog.Ticks) string {
	total := int(t.Duration().Seconds())
	m := total / 60
	s := total % 60
	if m >= 60 {
		return fmt.Sprintf("%d:%02d:%02d", m/60, m%60, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/avrillon/cadenza/internal/catalog"
	"github.com/avrillon/cadenza/internal/icons"
)

// panelOverhead is the vertical space the queue panel spends on border,
// header and separator.
const panelOverhead = 4

// queuePanel renders the queue with cursor navigation. The session owns the
// queue; the panel only holds view state.
type queuePanel struct {
	items       []catalog.PlayableItem
	playingIdx  int
	cursor      int
	offset      int
	width       int
	height      int
	loop        bool
	upNextShown bool
	upNext      *catalog.PlayableItem
}

func (p *queuePanel) setItems(items []catalog.PlayableItem, playingIdx int) {
	p.items = items
	p.playingIdx = playingIdx
	if p.cursor >= len(items) {
		p.cursor = max(len(items)-1, 0)
	}
	p.ensureCursorVisible()
}

func (p *queuePanel) setSize(width, height int) {
	p.width = width
	p.height = height
	p.ensureCursorVisible()
}

func (p *queuePanel) listHeight() int {
	return max(p.height-panelOverhead, 0)
}

func (p *queuePanel) moveCursor(delta int) {
	if len(p.items) == 0 {
		return
	}
	p.cursor = min(max(p.cursor+delta, 0), len(p.items)-1)
	p.ensureCursorVisible()
}

func (p *queuePanel) cursorToStart() {
	p.cursor = 0
	p.offset = 0
}

func (p *queuePanel) cursorToEnd() {
	if len(p.items) == 0 {
		return
	}
	p.cursor = len(p.items) - 1
	p.ensureCursorVisible()
}

func (p *queuePanel) ensureCursorVisible() {
	h := p.listHeight()
	if h <= 0 {
		return
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+h {
		p.offset = p.cursor - h + 1
	}
}

func (p *queuePanel) view() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}

	innerWidth := p.width - 2
	header := p.renderHeader(innerWidth)
	list := p.renderList(innerWidth)

	content := header + "\n" + subtleStyle.Render(separator(innerWidth)) + "\n" + list

	return panelBorderStyle.Width(innerWidth).Render(content)
}

func (p *queuePanel) renderHeader(innerWidth int) string {
	current := p.playingIdx + 1
	if current < 1 {
		current = 0
	}
	left := fmt.Sprintf("Queue (%d/%d)", current, len(p.items))

	right := ""
	if p.loop {
		right = mutedStyle.Render(icons.Repeat()) + " "
	}

	leftWidth := innerWidth - lipgloss.Width(right)
	return titleStyle.Render(truncateAndPad(left, leftWidth)) + right
}

func (p *queuePanel) renderList(innerWidth int) string {
	h := p.listHeight()
	lines := make([]string, 0, h+1)
	for i := range h {
		idx := i + p.offset
		if idx >= len(p.items) {
			lines = append(lines, emptyLine(innerWidth))
			continue
		}
		lines = append(lines, p.renderLine(p.items[idx], idx, innerWidth))
	}
	lines = append(lines, p.renderUpNext(innerWidth))
	return strings.Join(lines, "\n")
}

func (p *queuePanel) renderLine(item catalog.PlayableItem, idx, width int) string {
	prefix := "  "
	if idx == p.playingIdx {
		prefix = playSymbol + " "
	}

	dur := formatTicks(item.RuntimeTicks)
	durWidth := lipgloss.Width(dur) + 1

	contentWidth := width - 2 - durWidth
	titleWidth := contentWidth / 2
	infoWidth := contentWidth - titleWidth

	line := prefix +
		truncateAndPad(item.DisplayTitle(), titleWidth) +
		truncateAndPad(itemInfo(item), infoWidth) +
		" " + dur

	return p.lineStyle(idx).Render(line)
}

func (p *queuePanel) lineStyle(idx int) lipgloss.Style {
	isCursor := idx == p.cursor
	isPlaying := idx == p.playingIdx
	isPlayed := idx < p.playingIdx

	switch {
	case isCursor && isPlaying:
		return cursorStyle.Inherit(playingStyle)
	case isCursor:
		return cursorStyle
	case isPlaying:
		return playingStyle
	case isPlayed:
		return subtleStyle
	default:
		return baseStyle
	}
}

// renderUpNext renders the up-next banner line, blank while hidden.
func (p *queuePanel) renderUpNext(width int) string {
	if !p.upNextShown {
		return emptyLine(width)
	}
	text := "Skip outro"
	if p.upNext != nil {
		text = truncate("Up next: "+p.upNext.DisplayTitle(), width-12)
	}
	return upNextStyle.Render(row(text, "[tab] skip", width))
}

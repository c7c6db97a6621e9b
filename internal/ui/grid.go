package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thesavant42/photofeed/internal/models"
)

var gridRowStyle = lipgloss.NewStyle().PaddingLeft(1)

// gridView is the cursor and scroll position over one feed
type gridView struct {
	cursor int
	top    int // first visible row
}

// isMoveKey reports whether key moves the grid cursor
func isMoveKey(key string) bool {
	switch key {
	case "left", "h", "right", "l", "up", "k", "down", "j", "home", "g", "end", "G":
		return true
	}
	return false
}

// moveCursor returns the cursor after key is pressed on a grid of total cards
func moveCursor(cursor, total int, key string) int {
	if total == 0 {
		return 0
	}
	switch key {
	case "left", "h":
		if cursor%GridColumns > 0 {
			cursor--
		}
	case "right", "l":
		if cursor%GridColumns < GridColumns-1 && cursor+1 < total {
			cursor++
		}
	case "up", "k":
		if cursor-GridColumns >= 0 {
			cursor -= GridColumns
		}
	case "down", "j":
		if cursor+GridColumns < total {
			cursor += GridColumns
		} else if rowOf(total-1) > rowOf(cursor) {
			cursor = total - 1
		}
	case "home", "g":
		cursor = 0
	case "end", "G":
		cursor = total - 1
	}
	return cursor
}

func rowOf(i int) int {
	return i / GridColumns
}

func rowCount(total int) int {
	return (total + GridColumns - 1) / GridColumns
}

// inLastRow reports whether the cursor sits on the final row of the grid.
// Reaching it is the near-end signal for loading the next page.
func inLastRow(cursor, total int) bool {
	return total > 0 && rowOf(cursor) == rowCount(total)-1
}

// scrollTop returns the first visible row that keeps the cursor on screen
func scrollTop(top, cursor, visible int) int {
	row := rowOf(cursor)
	if row < top {
		return row
	}
	if row >= top+visible {
		return row - visible + 1
	}
	return top
}

// clamp keeps g inside a grid of total cards
func (g *gridView) clamp(total, visible int) {
	if g.cursor >= total {
		g.cursor = total - 1
	}
	if g.cursor < 0 {
		g.cursor = 0
	}
	if maxTop := rowCount(total) - visible; g.top > maxTop {
		g.top = maxTop
	}
	if g.top < 0 {
		g.top = 0
	}
	g.top = scrollTop(g.top, g.cursor, visible)
}

// renderCard draws one photo card of the given outer width
func renderCard(p models.PhotoRecord, selected bool, width int) string {
	style, titleStyle := CardStyle, TitleStyle
	if selected {
		style, titleStyle = CardSelectedStyle, SelectedStyle
	}
	inner := width - 4
	lines := []string{
		titleStyle.Render(truncateToWidth(p.DisplayTitle(), inner)),
		DimStyle.Render(truncateToWidth("#"+p.ID, inner)),
		DimStyle.Render(truncateToWidth(hostLabel(p.ImageURL), inner)),
	}
	return style.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// renderGrid draws the visible rows of items, highlighting the cursor card
func renderGrid(items []models.PhotoRecord, g gridView, layout Layout) string {
	gap := strings.Repeat(" ", GridGap)
	var rows []string
	for row := g.top; row < g.top+layout.GridRows && row < rowCount(len(items)); row++ {
		var cards []string
		for col := 0; col < GridColumns; col++ {
			i := row*GridColumns + col
			if i >= len(items) {
				break
			}
			if col > 0 {
				cards = append(cards, gap)
			}
			cards = append(cards, renderCard(items[i], i == g.cursor, layout.CardWidth))
		}
		rows = append(rows, gridRowStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cards...)))
	}
	return strings.Join(rows, "\n")
}

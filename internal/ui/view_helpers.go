package ui

// view_helpers.go provides common View() rendering helpers.
// Every screen is built as a bordered content box above a one-line help box.

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpBoxStyle frames the single help line under the main box
var HelpBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorText)

// ViewHeader renders title + full-width divider + spacing
func ViewHeader(title string, innerWidth int) string {
	var b strings.Builder
	b.WriteString(RenderTitle(title))
	b.WriteString("\n")
	b.WriteString(FullWidthDivider(innerWidth))
	b.WriteString("\n")
	return b.String()
}

// CenterText centers text within given width.
// Uses StringWidth() for accurate ANSI-aware width calculation.
func CenterText(text string, width int) string {
	textW := StringWidth(text)
	if textW >= width {
		return text
	}
	padding := (width - textW) / 2
	return strings.Repeat(" ", padding) + text
}

// FullWidthDivider returns a horizontal divider spanning the inner width
func FullWidthDivider(innerWidth int) string {
	return strings.Repeat("─", innerWidth)
}

// StringWidth returns the rendered cell width of s, ignoring ANSI codes
func StringWidth(s string) int {
	return lipgloss.Width(s)
}

// truncateToWidth shortens plain text to at most width cells, adding "…"
func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if StringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && StringWidth(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// wrapText breaks plain text into lines of at most width runes.
// Long words such as URLs are split hard.
func wrapText(text string, width int) []string {
	if width <= 0 || text == "" {
		return []string{text}
	}
	var lines []string
	var current []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		if len(current) > 0 && len(current)+1+len(w) > width {
			lines = append(lines, string(current))
			current = nil
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		for len(w) > 0 {
			room := width - len(current)
			if len(w) <= room {
				current = append(current, w...)
				break
			}
			if room > 0 {
				current = append(current, w[:room]...)
				w = w[room:]
			}
			lines = append(lines, string(current))
			current = nil
		}
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

// fitHeight pads or truncates content to exactly height lines
func fitHeight(content string, height int) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// TwoBoxView constructs the standard two-box layout.
//
//	┌────────────────────────┐
//	│ Main content           │  <- blue border
//	│                        │
//	└────────────────────────┘
//	┌────────────────────────┐
//	│   Centered help text   │  <- white border, 1 row
//	└────────────────────────┘
func TwoBoxView(content, helpText string, layout Layout) string {
	bodyHeight := layout.ViewportHeight - 5
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	main := BorderStyle.Width(layout.InnerWidth).Render(fitHeight(content, bodyHeight))
	help := HelpBoxStyle.Width(layout.InnerWidth).Render(
		CenterText(HintStyle.Render(truncateToWidth(helpText, layout.InnerWidth)), layout.InnerWidth))
	return lipgloss.JoinVertical(lipgloss.Left, main, help)
}

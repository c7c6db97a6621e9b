package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thesavant42/photofeed/internal/feed"
	"github.com/thesavant42/photofeed/internal/models"
)

const maxLightboxWidth = 80

// renderLightbox draws the enlarged view of one photo, centered in the body
func renderLightbox(p models.PhotoRecord, layout Layout, height int) string {
	width := layout.InnerWidth - 8
	if width > maxLightboxWidth {
		width = maxLightboxWidth
	}
	textWidth := width - 4

	var b strings.Builder
	b.WriteString(AccentStyle.Render(truncateToWidth(p.DisplayTitle(), textWidth)))
	b.WriteString("\n\n")
	b.WriteString(RenderNormal("ID:   " + p.ID))
	b.WriteString("\n")
	b.WriteString(RenderNormal("Host: " + hostLabel(p.ImageURL)))
	b.WriteString("\n\n")
	for _, line := range wrapText(p.ImageURL, textWidth) {
		b.WriteString(RenderDim(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(HintStyle.Render("o: open in browser   esc: close"))

	box := LightboxStyle.Width(width).Render(b.String())
	return lipgloss.Place(layout.InnerWidth, height, lipgloss.Center, lipgloss.Center, box)
}

// renderAlert draws the failure dialog for a feed whose last request failed
func renderAlert(f *feed.Failure, layout Layout, height int) string {
	lines := []string{
		StatusMsgStyle.Render("Network Error"),
		"",
		RenderNormal("Failed to load photos. Please try again."),
	}
	if f != nil && f.Err != nil {
		lines = append(lines, RenderDim(truncateToWidth(f.Err.Error(), layout.InnerWidth-16)))
	}
	lines = append(lines, "",
		AccentStyle.Render("r: RETRY")+"    "+RenderNormal("esc: Cancel"))

	box := AlertStyle.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
	return lipgloss.Place(layout.InnerWidth, height, lipgloss.Center, lipgloss.Center, box)
}

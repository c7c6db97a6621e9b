package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thesavant42/photofeed/internal/api"
	"github.com/thesavant42/photofeed/internal/feed"
	"github.com/thesavant42/photofeed/internal/models"
)

var (
	// Color palette
	purple = lipgloss.Color("99")  // for borders
	pink   = lipgloss.Color("205") // for header text
	cyan   = lipgloss.Color("86")
	white  = lipgloss.Color("255")
	green  = lipgloss.Color("82")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(pink).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(cyan)

	headerStyle = lipgloss.NewStyle().
			Foreground(pink).
			Bold(true)

	cellStyle = lipgloss.NewStyle().
			Foreground(white).
			Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	borderStyle = lipgloss.NewStyle().
			Foreground(purple)
)

// Column widths for the CLI photo table
const (
	colIndex = 5
	colID    = 13
	colTitle = 40
	colHost  = 26
)

// FeedTitle names a feed for headers
func FeedTitle(mode models.FeedMode, s feed.State) string {
	if mode == models.ModeSearch {
		return fmt.Sprintf("Search results for %q", s.Query)
	}
	return "Recent Flickr Photos"
}

// hostLabel returns the image's registrable domain, or "-" when unknown
func hostLabel(imageURL string) string {
	host, err := api.ImageHost(imageURL)
	if err != nil {
		return "-"
	}
	return host
}

// PrintFeedHeader prints a styled header for a feed snapshot
func PrintFeedHeader(title string, s feed.State) {
	header := titleStyle.Render(title)
	stats := subtitleStyle.Render(fmt.Sprintf("Page %s | %s photos",
		statStyle.Render(fmt.Sprintf("%d", s.Page)),
		statStyle.Render(fmt.Sprintf("%d", len(s.Items)))))

	fmt.Println()
	fmt.Println(header)
	fmt.Println(stats)
	fmt.Println()
}

// PhotoTable renders items as a plain bordered table for CLI output.
// Lipgloss only colors the text; the structure is string formatting.
func PhotoTable(s feed.State) string {
	if len(s.Items) == 0 {
		return subtitleStyle.Render("No photos.") + "\n"
	}

	widths := []int{colIndex, colID, colTitle, colHost}
	line := func(left, mid, right string) string {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return borderStyle.Render(left + strings.Join(parts, mid) + right)
	}
	row := func(style lipgloss.Style, cells ...string) string {
		var b strings.Builder
		b.WriteString(borderStyle.Render("│"))
		for i, c := range cells {
			c = truncateToWidth(c, widths[i])
			c += strings.Repeat(" ", widths[i]-StringWidth(c))
			b.WriteString(style.Render(c))
			b.WriteString(borderStyle.Render("│"))
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString(line("┌", "┬", "┐") + "\n")
	b.WriteString(row(headerStyle.Padding(0, 1), "#", "ID", "Title", "Host") + "\n")
	b.WriteString(line("├", "┼", "┤") + "\n")
	for i, p := range s.Items {
		b.WriteString(row(cellStyle, fmt.Sprintf("%d", i+1), p.ID, p.DisplayTitle(), hostLabel(p.ImageURL)) + "\n")
	}
	b.WriteString(line("└", "┴", "┘") + "\n")
	return b.String()
}

// PrintPhotoTable prints the feed's items as a table
func PrintPhotoTable(s feed.State) {
	fmt.Print(PhotoTable(s))
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	successStyle := lipgloss.NewStyle().
		Foreground(green).
		Bold(true)
	fmt.Println(successStyle.Render(message))
}

// PrintError prints an error message
func PrintError(message string) {
	errorStyle := lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)
	fmt.Println(errorStyle.Render("Error: " + message))
}

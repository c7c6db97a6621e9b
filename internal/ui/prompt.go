package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// sanitizeInput removes null bytes and other invisible control characters from input
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		// Keep printable characters and normal whitespace
		if r == 0 || (r < 32 && r != '\t' && r != '\n' && r != '\r') {
			return -1
		}
		return r
	}, s)
}

// validateSearchTerm rejects blank search terms
func validateSearchTerm(s string) error {
	if strings.TrimSpace(sanitizeInput(s)) == "" {
		return fmt.Errorf("search term cannot be empty")
	}
	return nil
}

// PromptForSearch asks for a photo search term.
// initial pre-fills the input.
func PromptForSearch(initial string) (string, error) {
	query := initial

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Search Flickr Photos").
				Description("Photos whose title, description or tags match").
				Placeholder("e.g. sunset").
				Value(&query).
				Validate(validateSearchTerm),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}

	return strings.TrimSpace(sanitizeInput(query)), nil
}

// ConfirmLoadMore asks whether to fetch the next page in print mode
func ConfirmLoadMore(page int) (bool, error) {
	var more bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Load page %d?", page)).
				Affirmative("Yes").
				Negative("No").
				Value(&more),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt cancelled: %w", err)
	}
	return more, nil
}

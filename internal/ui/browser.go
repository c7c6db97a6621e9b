package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/thesavant42/photofeed/internal/feed"
	"github.com/thesavant42/photofeed/internal/models"
)

// browserTab identifies one of the browser's screens
type browserTab int

const (
	tabRecent browserTab = iota
	tabSearch
	tabGallery
	tabCount
)

var tabNames = [tabCount]string{"Recent", "Search", "Gallery"}

// feedDoneMsg reports a finished controller operation
type feedDoneMsg struct {
	mode models.FeedMode
	op   feed.Op
	err  error
}

// openDoneMsg reports the result of handing a URL to the system browser
type openDoneMsg struct {
	url string
	err error
}

// feedTab pairs a controller with its grid position
type feedTab struct {
	ctrl *feed.Controller
	grid gridView
}

// BrowserModel shows the recent and search feeds as two-column photo grids
// with a lightbox for the selected photo. All feed state lives in the
// controllers; the model re-reads their snapshots on every render, so
// spinner ticks repaint cached items while the network is still answering.
type BrowserModel struct {
	PageState

	ctx    context.Context
	logger *log.Logger

	tab    browserTab
	recent *feedTab
	search *feedTab

	input     textinput.Model
	inputOpen bool
	spinner   spinner.Model
	selected  *models.PhotoRecord
	openURL   func(string) error
}

// NewBrowserModel creates the browser over the two feeds.
// ctx bounds every request the browser issues.
func NewBrowserModel(ctx context.Context, logger *log.Logger, recent, search *feed.Controller) BrowserModel {
	layout := DefaultLayout()

	ti := textinput.New()
	ti.Placeholder = "Search photos..."
	ti.CharLimit = 100
	ti.Prompt = "Search: "
	ti.PromptStyle = AccentStyle
	ti.TextStyle = NormalStyle
	ti.PlaceholderStyle = DimStyle
	ti.Width = layout.InnerWidth - 12

	return BrowserModel{
		PageState: NewPageState(layout),
		ctx:       ctx,
		logger:    logger,
		recent:    &feedTab{ctrl: recent},
		search:    &feedTab{ctrl: search},
		input:     ti,
		spinner:   NewAppSpinner(),
		openURL:   openURL,
	}
}

// RunBrowser runs the browser full-screen until the user quits
func RunBrowser(ctx context.Context, logger *log.Logger, recent, search *feed.Controller) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewBrowserModel(ctx, logger, recent, search), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser error: %w", err)
	}
	return nil
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.runOp(m.recent.ctrl, feed.OpInitial, m.recent.ctrl.LoadInitial),
	)
}

// runOp executes a blocking controller call off the UI goroutine
func (m BrowserModel) runOp(ctrl *feed.Controller, op feed.Op, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return feedDoneMsg{mode: ctrl.Mode(), op: op, err: fn(ctx)}
	}
}

func (m BrowserModel) openCmd(url string) tea.Cmd {
	open := m.openURL
	return func() tea.Msg {
		return openDoneMsg{url: url, err: open(url)}
	}
}

// activeTab returns the feed shown on the current tab, or nil for the gallery
func (m BrowserModel) activeTab() *feedTab {
	switch m.tab {
	case tabRecent:
		return m.recent
	case tabSearch:
		return m.search
	}
	return nil
}

func (m BrowserModel) tabFor(mode models.FeedMode) *feedTab {
	if mode == models.ModeSearch {
		return m.search
	}
	return m.recent
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if m.UpdateLayout(msg.Width, msg.Height) {
			m.input.Width = m.Layout.InnerWidth - 12
			for _, t := range []*feedTab{m.recent, m.search} {
				t.grid.clamp(len(t.ctrl.Snapshot().Items), m.Layout.GridRows)
			}
		}
		return m, nil

	case spinner.TickMsg:
		m.ClearExpiredStatus()
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case feedDoneMsg:
		t := m.tabFor(msg.mode)
		s := t.ctrl.Snapshot()
		t.grid.clamp(len(s.Items), m.Layout.GridRows)
		if msg.err == nil && msg.op == feed.OpRefresh {
			m.SetStatus(fmt.Sprintf("Refreshed: %d photos", len(s.Items)), 3*time.Second)
		}
		return m, nil

	case openDoneMsg:
		if msg.err != nil {
			if m.logger != nil {
				m.logger.Warn("failed to open browser", "url", msg.url, "err", msg.err)
			}
			m.SetStatus("Could not open browser", 4*time.Second)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.inputOpen {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m BrowserModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}

	t := m.activeTab()
	if t != nil {
		if f := t.ctrl.Snapshot().Failure; f != nil {
			return m.handleAlertKey(t, f, key)
		}
	}
	if m.selected != nil {
		return m.handleLightboxKey(key)
	}
	if m.inputOpen {
		return m.handleInputKey(msg)
	}

	switch key {
	case "q", "esc":
		m.Quitting = true
		return m, tea.Quit
	case "tab":
		return m.switchTab((m.tab + 1) % tabCount)
	case "shift+tab":
		return m.switchTab((m.tab + tabCount - 1) % tabCount)
	}

	if t == nil {
		return m, nil
	}

	switch key {
	case "/", "s":
		if m.tab == tabSearch {
			m.inputOpen = true
			return m, m.input.Focus()
		}
	case "x":
		if m.tab == tabSearch {
			t.ctrl.Clear()
			t.grid = gridView{}
			m.input.Reset()
		}
	case "r":
		return m, m.runOp(t.ctrl, feed.OpRefresh, t.ctrl.Refresh)
	case "enter":
		items := t.ctrl.Snapshot().Items
		if t.grid.cursor < len(items) {
			p := items[t.grid.cursor]
			m.selected = &p
			if m.logger != nil {
				m.logger.Debug("photo selected", "id", p.ID, "url", p.ImageURL)
			}
		}
	case "o":
		items := t.ctrl.Snapshot().Items
		if t.grid.cursor < len(items) {
			return m, m.openCmd(items[t.grid.cursor].ImageURL)
		}
	default:
		if isMoveKey(key) {
			return m.moveGrid(t, key)
		}
	}
	return m, nil
}

// switchTab shows tab; an empty search tab opens its input right away
func (m BrowserModel) switchTab(tab browserTab) (tea.Model, tea.Cmd) {
	m.tab = tab
	if tab == tabSearch && m.search.ctrl.Snapshot().Query == "" {
		m.inputOpen = true
		return m, m.input.Focus()
	}
	return m, nil
}

// moveGrid moves the cursor and asks for the next page once the last row is
// reached, unless the feed has already run out of pages
func (m BrowserModel) moveGrid(t *feedTab, key string) (tea.Model, tea.Cmd) {
	s := t.ctrl.Snapshot()
	total := len(s.Items)
	t.grid.cursor = moveCursor(t.grid.cursor, total, key)
	t.grid.top = scrollTop(t.grid.top, t.grid.cursor, m.Layout.GridRows)

	if inLastRow(t.grid.cursor, total) && !s.Loading() && !s.Exhausted {
		return m, m.runOp(t.ctrl, feed.OpLoadMore, t.ctrl.LoadMore)
	}
	return m, nil
}

func (m BrowserModel) handleAlertKey(t *feedTab, f *feed.Failure, key string) (tea.Model, tea.Cmd) {
	switch key {
	case "r", "enter":
		return m, m.runOp(t.ctrl, f.Op, t.ctrl.Retry)
	case "esc", "c":
		t.ctrl.Dismiss()
	}
	return m, nil
}

func (m BrowserModel) handleLightboxKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "enter", "backspace", "q":
		m.selected = nil
	case "o":
		return m, m.openCmd(m.selected.ImageURL)
	}
	return m, nil
}

func (m BrowserModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(sanitizeInput(m.input.Value()))
		m.inputOpen = false
		m.input.Blur()
		if query == "" {
			return m, nil
		}
		m.search.grid = gridView{}
		ctrl := m.search.ctrl
		if m.logger != nil {
			m.logger.Debug("search submitted", "query", query)
		}
		return m, m.runOp(ctrl, feed.OpSearch, func(ctx context.Context) error {
			return ctrl.Search(ctx, query)
		})
	case "esc":
		m.inputOpen = false
		m.input.Blur()
		return m, nil
	case "tab", "shift+tab":
		m.inputOpen = false
		m.input.Blur()
		if msg.String() == "tab" {
			return m.switchTab((m.tab + 1) % tabCount)
		}
		return m.switchTab((m.tab + tabCount - 1) % tabCount)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BrowserModel) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(ViewHeader("Flickr Photos", m.Layout.InnerWidth))
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody(m.Layout.ViewportHeight - 9))

	return TwoBoxView(b.String(), m.helpText(), m.Layout)
}

func (m BrowserModel) renderTabs() string {
	var tabs []string
	for i, name := range tabNames {
		if browserTab(i) == m.tab {
			tabs = append(tabs, TabActiveStyle.Render(name))
		} else {
			tabs = append(tabs, TabInactiveStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m BrowserModel) renderBody(height int) string {
	t := m.activeTab()
	if m.selected != nil && (t == nil || t.ctrl.Snapshot().Failure == nil) {
		return renderLightbox(*m.selected, m.Layout, height)
	}

	if t == nil {
		gallery := lipgloss.JoinVertical(lipgloss.Center,
			RenderTitle("Gallery"), "", RenderDim("Coming Soon..."))
		return lipgloss.Place(m.Layout.InnerWidth, height, lipgloss.Center, lipgloss.Center, gallery)
	}

	s := t.ctrl.Snapshot()
	var b strings.Builder
	if m.tab == tabSearch {
		b.WriteString(" " + m.input.View())
		b.WriteString("\n\n")
		height -= 2
	}

	if s.Failure != nil {
		b.WriteString(renderAlert(s.Failure, m.Layout, height))
		return b.String()
	}

	if len(s.Items) == 0 {
		b.WriteString(lipgloss.Place(m.Layout.InnerWidth, height, lipgloss.Center, lipgloss.Center, m.emptyText(s)))
		return b.String()
	}

	b.WriteString(renderGrid(s.Items, t.grid, m.Layout))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(s))
	return b.String()
}

// emptyText explains an empty grid
func (m BrowserModel) emptyText(s feed.State) string {
	switch {
	case s.Loading() && m.tab == tabSearch:
		return m.spinner.View() + " " + RenderNormal("Searching...")
	case s.Loading():
		return m.spinner.View() + " " + RenderNormal("Loading...")
	case m.tab == tabSearch && s.Query == "":
		return RenderDim("Enter a search term to find photos")
	case m.tab == tabSearch:
		return RenderDim(fmt.Sprintf("No photos found for \"%s\"", s.Query))
	}
	return RenderDim("No photos yet. Press r to refresh.")
}

func (m BrowserModel) renderFooter(s feed.State) string {
	switch s.Status() {
	case feed.StatusRefreshing:
		return " " + m.spinner.View() + " " + ProgressStyle.Render("Refreshing...")
	case feed.StatusInitialLoading:
		return " " + m.spinner.View() + " " + ProgressStyle.Render("Loading...")
	case feed.StatusLoadingMore:
		return " " + m.spinner.View() + " " + ProgressStyle.Render("Loading more...")
	}
	if m.HasStatus() {
		return " " + AccentStyle.Render(m.StatusMsg)
	}
	if s.Exhausted {
		return " " + RenderDim(fmt.Sprintf("End of results | %d photos", len(s.Items)))
	}
	return " " + RenderDim(fmt.Sprintf("Page %d | %d photos", s.Page, len(s.Items)))
}

func (m BrowserModel) helpText() string {
	if t := m.activeTab(); t != nil && t.ctrl.Snapshot().Failure != nil {
		return "r: retry | esc: cancel"
	}
	switch {
	case m.selected != nil:
		return "o: open in browser | esc: close"
	case m.inputOpen:
		return "enter: search | esc: cancel | tab: switch"
	case m.tab == tabGallery:
		return "tab: switch | q: quit"
	case m.tab == tabSearch:
		return "arrows/hjkl: move | enter: view | /: search | x: clear | r: refresh | tab: switch | q: quit"
	}
	return "arrows/hjkl: move | enter: view | o: open | r: refresh | tab: switch | q: quit"
}

// openURL opens a URL in the default browser
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default: // linux, freebsd, etc.
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

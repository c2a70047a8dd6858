// Package tui provides the interactive Bubble Tea dashboard for pburn.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/store"
	"github.com/theirongolddev/pburn/internal/tui/components"
	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports fixture parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

type tickMsg struct{}

// Options configures a new App.
type Options struct {
	DataDir  string
	UseCache bool
	AsOf     time.Time // zero means today, re-read on every refresh
	Config   config.Config
	// NeedSetup shows the first-run form once data has loaded.
	NeedSetup bool
}

// App is the root Bubble Tea model.
type App struct {
	opts   Options
	cfg    config.Config
	engine budget.Engine

	// Data
	reports    []model.ProjectReport
	stats      model.PortfolioStats
	categories []model.CategoryStats
	asOf       time.Time
	loaded     bool
	loadErr    error
	loadTime   time.Duration
	problems   int

	lastRefresh     time.Time
	refreshing      bool
	refreshInterval time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	proj      projectsState

	// First-run setup
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	// Loading
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 110
	maxContentWidth  = 180
	minContentHeight = 5
)

// NewApp creates the TUI model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		opts:            opts,
		needSetup:       opts.NeedSetup,
		refreshInterval: config.DaemonInterval(opts.Config),
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
		proj:            newProjectsState(opts.Config.General.DefaultSort),
	}
	a.applyConfig(opts.Config)
	return a
}

func (a *App) applyConfig(cfg config.Config) {
	a.cfg = cfg
	a.engine = config.Engine(cfg)
	theme.SetActive(cfg.Appearance.Theme)
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts.DataDir, a.opts.UseCache, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// evaluationDate is the fixed --as-of date or today.
func (a App) evaluationDate() time.Time {
	if !a.opts.AsOf.IsZero() {
		return a.opts.AsOf
	}
	return budget.Today()
}

// recompute evaluates every project and the portfolio aggregates.
func (a *App) recompute(projects []model.Project) {
	a.asOf = a.evaluationDate()
	a.reports = pipeline.Analyze(projects, a.engine, a.asOf)
	a.stats = pipeline.Summarize(a.reports)

	var all []model.Expense
	for _, p := range projects {
		all = append(all, p.Expenses...)
	}
	a.categories = pipeline.AggregateCategories(all)
	a.proj.clamp(len(a.visibleReports()))
}

func (a *App) applyResult(result *pipeline.LoadResult, err error, took time.Duration) {
	a.loadErr = err
	a.loadTime = took
	a.lastRefresh = time.Now()
	if err != nil || result == nil {
		return
	}
	a.problems = result.ParseErrors + result.FileErrors + result.Duplicates
	a.recompute(result.Projects)
}

func (a App) projects() []model.Project {
	out := make([]model.Project, len(a.reports))
	for i, r := range a.reports {
		out[i] = r.Project
	}
	return out
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.applyResult(msg.Result, msg.Err, msg.LoadTime)

		if a.needSetup && msg.Err == nil {
			a.setupVals = setupValuesFrom(a.cfg)
			a.setupForm = newSetupForm(len(a.reports), a.opts.DataDir, &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && !a.refreshing && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.opts.DataDir, a.opts.UseCache))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.applyResult(msg.Result, msg.Err, msg.LoadTime)
		return a, nil
	}

	// Forward cursor blinks and the like to the active form or input.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.proj.searching {
		var cmd tea.Cmd
		a.proj.searchInput, cmd = a.proj.searchInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == tabProjects && a.proj.searching {
		return a.updateProjectSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.activeTab == tabProjects {
		if next, cmd, handled := a.updateProjectsKey(key); handled {
			return next, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.opts.DataDir, a.opts.UseCache)
		}
	case "left", "h":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "l", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if i := components.TabIndex(key); i >= 0 {
			a.activeTab = i
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabProjects {
			a.proj.move(-1, len(a.visibleReports()))
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabProjects {
			a.proj.move(1, len(a.visibleReports()))
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		cfg := a.setupVals.apply(a.cfg)
		a.applyConfig(cfg)
		a.setupErr(config.Save(cfg))
		a.proj = newProjectsState(cfg.General.DefaultSort)
		a.recompute(a.projects())
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a *App) setupErr(err error) {
	if err != nil {
		a.loadErr = fmt.Errorf("saving config: %w", err)
	}
}

// tabAtX returns the tab under column x of the tab bar, or -1.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	switch {
	case a.width == 0:
		return ""
	case a.width < minTerminalWidth:
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  pburn needs at least %d columns.\n",
			a.width, minTerminalWidth)
	case !a.loaded:
		return a.viewLoading()
	case a.setupForm != nil:
		return a.setupForm.View()
	case a.showHelp:
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logo.Render("◈ pburn"))
	b.WriteString(muted.Render(" · Project Budget Burn"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	if a.progressMax > 0 {
		b.WriteString(muted.Render(fmt.Sprintf(" Parsing fixtures %d/%d\n\n", a.progress, a.progressMax)))
		b.WriteString(components.LoadBar(float64(a.progress)/float64(a.progressMax), min(40, max(a.width-30, 20))))
	} else {
		b.WriteString(muted.Render(" Scanning " + a.opts.DataDir))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	bindings := []struct{ key, desc string }{
		{"o p c", "Jump to tab"},
		{"← →", "Previous / next tab"},
		{"j k", "Move through projects"},
		{"g G", "First / last project"},
		{"enter", "Toggle project detail"},
		{"/", "Search projects"},
		{"s", "Cycle sort order"},
		{"S", "Reverse sort"},
		{"f", "Cycle status filter"},
		{"esc", "Clear search / close detail"},
		{"r", "Refresh now"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(title.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, bind := range bindings {
		fmt.Fprintf(&b, "%s  %s\n", keyStyle.Render(fmt.Sprintf("%-8s", bind.key)), desc.Render(bind.desc))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w, h, cw := a.width, a.height, a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w, "pburn · as of "+cli.FormatDate(a.asOf))

	state := fmt.Sprintf("%d projects · loaded in %.1fs", len(a.reports), a.loadTime.Seconds())
	if a.problems > 0 {
		state = fmt.Sprintf("%d skipped · %s", a.problems, state)
	}
	statusBar := components.RenderStatusBar(w, "[?]help [r]efresh [q]uit", state, a.refreshing)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil:
		content = components.ContentCard("Error",
			lipgloss.NewStyle().Foreground(t.Over).Background(t.Surface).Render(a.loadErr.Error()), cw)
	case a.activeTab == tabOverview:
		content = a.renderOverviewTab(cw)
	case a.activeTab == tabProjects:
		content = a.renderProjectsTab(cw, contentH)
	default:
		content = a.renderCategoriesTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadProjects runs the cached pipeline, falling back to a full parse.
func loadProjects(dataDir string, useCache bool, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	cache, err := store.Open(pipeline.CachePath())
	if err == nil {
		defer func() { _ = cache.Close() }()
		if useCache {
			if cr, err := pipeline.LoadWithCache(dataDir, cache, progressFn); err == nil {
				return &cr.LoadResult, nil
			}
		}
	}

	result, err := pipeline.Load(dataDir, progressFn)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		_ = pipeline.MergeManualExpenses(result, cache)
	}
	return result, nil
}

// loadDataCmd starts loading in a goroutine that streams ProgressMsg
// updates and a final DataLoadedMsg through sub.
func loadDataCmd(dataDir string, useCache bool, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			// Non-blocking so workers never stall on the UI.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}
			result, err := loadProjects(dataDir, useCache, progressFn)
			sub <- DataLoadedMsg{Result: result, Err: err, LoadTime: time.Since(start)}
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the loader goroutine sends again.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func refreshDataCmd(dataDir string, useCache bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		result, err := loadProjects(dataDir, useCache, nil)
		return RefreshDataMsg{Result: result, Err: err, LoadTime: time.Since(start)}
	}
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	n := strings.Count(s, "\n") + 1
	if n >= h {
		return s
	}
	return s + strings.Repeat("\n", h-n)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
	"github.com/vadimtrunov/cinebrowse/internal/store"
)

// newBrowseCmd returns the "browse" subcommand for the interactive browser.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse movies interactively",
		Long: "Browse movie listings in the terminal.\n" +
			"Tab switches listing, n/p turn pages, enter opens a movie, / searches, q quits.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd.Context())
		},
	}
}

// runBrowse starts the Bubble Tea browser. Logs are discarded so they
// cannot corrupt the screen.
func runBrowse(parent context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	st := initStore(cfg, slog.New(slog.DiscardHandler))

	ctx, cancel := signalContext(parent)
	defer cancel()

	p := tea.NewProgram(newBrowseModel(ctx, st), tea.WithAltScreen())

	unsubscribe := st.Subscribe(func(store.State) {
		p.Send(stateMsg{})
	})
	defer unsubscribe()

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

type browseView int

const (
	viewList browseView = iota
	viewDetail
)

type listMode int

const (
	modeCategory listMode = iota
	modeSearch
)

const defaultWidth = 80

// resultMsg reports a finished store operation.
type resultMsg struct {
	state store.State
	err   error
	nav   *listNav
}

// listNav is the category and page a listing request asked for. It becomes
// current only when the request succeeds.
type listNav struct {
	category int
	page     int
}

// stateMsg tells the model the store merged something. Snapshots from
// concurrent merges can arrive out of order, so the model rereads State.
type stateMsg struct{}

// browseModel is the Bubble Tea model for the interactive browser.
type browseModel struct {
	ctx     context.Context
	store   *store.Store
	spinner spinner.Model
	input   textinput.Model

	state    store.State
	category int // index into store.Categories
	page     int
	cursor   int
	view     browseView
	mode     listMode
	query    string
	movieID  int
	typing   bool
	loading  bool
	err      error
	width    int
}

func newBrowseModel(ctx context.Context, st *store.Store) browseModel {
	ti := textinput.New()
	ti.Placeholder = "Search titles..."
	ti.Prompt = "/ "
	ti.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		ctx:     ctx,
		store:   st,
		spinner: s,
		input:   ti,
		state:   st.State(),
		page:    1,
		loading: true,
		width:   defaultWidth,
	}
}

// Init loads the genre catalog and the first listing page.
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchHome())
}

// Update handles store results and key presses.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		if m.typing {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)

	case resultMsg:
		m.loading = false
		m.state = msg.state
		m.err = msg.err
		if msg.err == nil && msg.nav != nil {
			m.category = msg.nav.category
			m.page = msg.nav.page
			m.cursor = 0
		}
		m.clampCursor()
		return m, nil

	case stateMsg:
		m.state = m.store.State()
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.typing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}
	if m.loading {
		return m, nil
	}

	if m.view == viewDetail {
		switch msg.String() {
		case "esc", "backspace", "left", "h":
			m.view = viewList
			m.err = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.movies())-1 {
			m.cursor++
		}
	case "tab", "right", "l":
		return m.switchCategory(1)
	case "shift+tab", "left", "h":
		return m.switchCategory(-1)
	case "n":
		if m.mode == modeCategory && m.page < m.state.TotalPages {
			return m.load(m.fetchList(m.category, m.page+1))
		}
	case "p":
		if m.mode == modeCategory && m.page > 1 {
			return m.load(m.fetchList(m.category, m.page-1))
		}
	case "enter":
		movies := m.movies()
		if len(movies) == 0 {
			return m, nil
		}
		m.movieID = movies[m.cursor].ID
		m.view = viewDetail
		return m.load(m.fetchMovie(m.movieID))
	case "/":
		m.typing = true
		m.input.SetValue("")
		return m, m.input.Focus()
	case "esc":
		if m.mode == modeSearch {
			m.mode = modeCategory
			m.cursor = 0
			m.err = nil
		}
	}
	return m, nil
}

func (m browseModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.typing = false
		m.input.Blur()
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		m.typing = false
		m.input.Blur()
		if query == "" {
			return m, nil
		}
		m.query = query
		m.mode = modeSearch
		m.cursor = 0
		return m.load(m.fetchSearch(query))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// switchCategory moves to the neighbouring listing, wrapping around.
// From search results it returns to the current listing's neighbour.
func (m browseModel) switchCategory(delta int) (tea.Model, tea.Cmd) {
	n := len(store.Categories)
	next := ((m.category+delta)%n + n) % n
	m.mode = modeCategory
	return m.load(m.fetchList(next, 1))
}

func (m browseModel) load(fetch tea.Cmd) (tea.Model, tea.Cmd) {
	m.loading = true
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, fetch)
}

func (m browseModel) fetchHome() tea.Cmd {
	st, ctx := m.store, m.ctx
	return func() tea.Msg {
		err := st.LoadHome(ctx, 1)
		return resultMsg{state: st.State(), err: err, nav: &listNav{category: 0, page: 1}}
	}
}

func (m browseModel) fetchList(category, page int) tea.Cmd {
	st, ctx := m.store, m.ctx
	c := store.Categories[category]
	return func() tea.Msg {
		_, err := st.ListCategory(ctx, c, page)
		return resultMsg{state: st.State(), err: err, nav: &listNav{category: category, page: page}}
	}
}

func (m browseModel) fetchMovie(id int) tea.Cmd {
	st, ctx := m.store, m.ctx
	return func() tea.Msg {
		_, _, err := st.LoadMovie(ctx, strconv.Itoa(id))
		return resultMsg{state: st.State(), err: err}
	}
}

func (m browseModel) fetchSearch(query string) tea.Cmd {
	st, ctx := m.store, m.ctx
	return func() tea.Msg {
		_, err := st.SearchByTitle(ctx, query)
		return resultMsg{state: st.State(), err: err}
	}
}

// movies returns the list the list view currently shows.
func (m browseModel) movies() []tmdb.Movie {
	if m.mode == modeSearch {
		return m.state.Search
	}
	return m.state.Movies
}

func (m *browseModel) clampCursor() {
	if last := len(m.movies()) - 1; m.cursor > last {
		m.cursor = max(last, 0)
	}
}

// View renders the current screen.
func (m browseModel) View() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Cinebrowse"))
	b.WriteString("\n")

	if m.view == viewDetail {
		b.WriteString(m.detailView())
	} else {
		b.WriteString(m.listView())
	}

	if m.loading {
		b.WriteString("\n" + m.spinner.View() + styleDim.Render(" Loading..."))
	}
	if m.err != nil {
		b.WriteString("\n" + styleError.Render("Error: "+store.Describe(m.err)))
	}
	if m.typing {
		b.WriteString("\n" + m.input.View())
	}
	b.WriteString("\n" + styleDim.Render(m.help()) + "\n")
	return b.String()
}

var (
	styleTab       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("8"))
	styleActiveTab = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("5"))
	styleCursor    = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
)

func (m browseModel) listView() string {
	var b strings.Builder

	if m.mode == modeSearch {
		b.WriteString(styleTitle.Render(fmt.Sprintf("Results for %q", m.query)))
	} else {
		tabs := make([]string, 0, len(store.Categories))
		for i, c := range store.Categories {
			if i == m.category {
				tabs = append(tabs, styleActiveTab.Render(c.Title()))
			} else {
				tabs = append(tabs, styleTab.Render(c.Title()))
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
		b.WriteString("  " + styleDim.Render(fmt.Sprintf("page %d of %d", m.page, m.state.TotalPages)))
	}
	b.WriteString("\n\n")

	movies := m.movies()
	if len(movies) == 0 && !m.loading {
		b.WriteString(styleDim.Render("No movies found.") + "\n")
	}
	for i, mv := range movies {
		marker := "  "
		if i == m.cursor {
			marker = styleCursor.Render("› ")
		}
		b.WriteString(marker + movieLine(mv, m.state.Genres) + "\n")
	}
	return b.String()
}

func (m browseModel) detailView() string {
	movie := m.state.Movie
	if movie == nil || movie.ID != m.movieID {
		if m.loading {
			return ""
		}
		return styleDim.Render("Movie unavailable.") + "\n"
	}
	cast := m.state.Credits
	if m.err != nil {
		cast = nil
	}
	return renderMovie(movie, cast, max(m.width-2, 20))
}

func (m browseModel) help() string {
	switch {
	case m.typing:
		return "enter search · esc cancel"
	case m.view == viewDetail:
		return "esc back · q quit"
	case m.mode == modeSearch:
		return "↑/↓ move · enter details · tab listings · / search · esc back · q quit"
	default:
		return "↑/↓ move · ←/→ listing · n/p page · enter details · / search · q quit"
	}
}

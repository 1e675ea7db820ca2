package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/cinebrowse/internal/config"
	"github.com/vadimtrunov/cinebrowse/internal/httpclient"
	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
	"github.com/vadimtrunov/cinebrowse/internal/store"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleRating  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow

	styleTitle = lipgloss.NewStyle().Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// newTMDbClient creates the TMDb client every frontend shares.
func newTMDbClient(cfg *config.Config, logger *slog.Logger) *tmdb.Client {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.UserAgent = "cinebrowse/" + version
	if cfg.TMDb.Timeout > 0 {
		httpCfg.Timeout = cfg.TMDb.Timeout
	}

	client := tmdb.New(tmdb.Options{
		BaseURL:     cfg.TMDb.BaseURL,
		APIKey:      cfg.TMDb.APIKey,
		AccessToken: cfg.TMDb.AccessToken,
		Language:    cfg.TMDb.Language,
		HTTP:        httpCfg,
	}, logger)

	baseURL := cfg.TMDb.BaseURL
	if baseURL == "" {
		baseURL = tmdb.DefaultBaseURL
	}
	logger.Debug("TMDb client initialized",
		slog.String("url", sanitizeURL(baseURL)),
		slog.Bool("bearer", cfg.TMDb.AccessToken != ""),
	)
	return client
}

// initStore creates a movie store backed by TMDb.
func initStore(cfg *config.Config, logger *slog.Logger) *store.Store {
	return store.New(newTMDbClient(cfg, logger), logger)
}

// setup loads the configuration and builds a store logging the configured way.
func setup() (*config.Config, *slog.Logger, *store.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := config.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	return cfg, logger, initStore(cfg, logger), nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func year(releaseDate string) string {
	if len(releaseDate) < 4 {
		return "----"
	}
	return releaseDate[:4]
}

func genreNames(catalog []tmdb.Genre, ids []int) string {
	byID := make(map[int]string, len(catalog))
	for _, g := range catalog {
		byID[g.ID] = g.Name
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// movieLine renders one listing row: title, year, rating, ID and known genres.
func movieLine(m tmdb.Movie, genres []tmdb.Genre) string {
	line := fmt.Sprintf("%s %s  %s  %s",
		styleTitle.Render(m.Title),
		styleDim.Render("("+year(m.ReleaseDate)+")"),
		styleRating.Render(fmt.Sprintf("★ %.1f", m.VoteAverage)),
		styleDim.Render(fmt.Sprintf("#%d", m.ID)),
	)
	if names := genreNames(genres, m.GenreIDs); names != "" {
		line += "  " + styleInfo.Render(names)
	}
	return line
}

// printMovies writes a numbered page of movies.
func printMovies(w io.Writer, title string, movies []tmdb.Movie, page int, genres []tmdb.Genre) {
	header := title
	if page > 0 {
		header = fmt.Sprintf("%s · page %d", title, page)
	}
	fmt.Fprintln(w, styleHeader.Render(header))

	if len(movies) == 0 {
		fmt.Fprintln(w, styleDim.Render("No movies found."))
		return
	}
	for i, m := range movies {
		fmt.Fprintf(w, "%s %s\n", styleDim.Render(fmt.Sprintf("%2d.", i+1)), movieLine(m, genres))
	}
}

// renderMovie formats a movie's details and cast for the terminal.
func renderMovie(m *tmdb.MovieDetails, cast []tmdb.CastMember, width int) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(fmt.Sprintf("%s (%s)", m.Title, year(m.ReleaseDate))))
	sb.WriteString("\n")
	if m.Tagline != "" {
		sb.WriteString(styleDim.Italic(true).Render(m.Tagline) + "\n")
	}

	facts := []string{styleRating.Render(fmt.Sprintf("★ %.1f (%d votes)", m.VoteAverage, m.VoteCount))}
	if m.Runtime > 0 {
		facts = append(facts, fmt.Sprintf("%d min", m.Runtime))
	}
	if m.Status != "" {
		facts = append(facts, m.Status)
	}
	if len(m.Genres) > 0 {
		names := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			names = append(names, g.Name)
		}
		facts = append(facts, styleInfo.Render(strings.Join(names, ", ")))
	}
	sb.WriteString(strings.Join(facts, styleDim.Render(" · ")) + "\n")

	if m.Overview != "" {
		sb.WriteString("\n" + lipgloss.NewStyle().Width(width).Render(m.Overview) + "\n")
	}

	if len(cast) > 0 {
		sb.WriteString("\n" + styleTitle.Render("Cast") + "\n")
		for _, c := range cast {
			if c.Character != "" {
				fmt.Fprintf(&sb, "  %s %s\n", c.Name, styleDim.Render("as "+c.Character))
			} else {
				fmt.Fprintf(&sb, "  %s\n", c.Name)
			}
		}
	}
	return sb.String()
}

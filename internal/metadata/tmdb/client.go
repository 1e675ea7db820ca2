package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vadimtrunov/cinebrowse/internal/httpclient"
)

const (
	// DefaultBaseURL is the TMDb v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"
	imageBaseURL   = "https://image.tmdb.org/t/p/"

	maxErrorBody = 64 << 10
)

// Options configures a Client. Either APIKey or AccessToken must be set.
type Options struct {
	BaseURL     string
	APIKey      string
	AccessToken string
	Language    string
	HTTP        httpclient.Config
}

// Client is a TMDb API v3 client.
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	language    string
	http        *httpclient.Client
	logger      *slog.Logger
}

// New creates a new TMDb client.
func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpCfg := opts.HTTP
	if httpCfg.Timeout == 0 {
		httpCfg = httpclient.DefaultConfig()
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      opts.APIKey,
		accessToken: opts.AccessToken,
		language:    opts.Language,
		http:        httpclient.New(httpCfg, logger),
		logger:      logger,
	}
}

// NewForTest creates a TMDb client with a custom base URL for testing.
// Exported because it is used by cross-package tests (e.g. internal/mcp).
func NewForTest(baseURL string, logger *slog.Logger) *Client {
	return New(Options{BaseURL: baseURL, APIKey: "test-key"}, logger)
}

// DiscoverMovies returns one page of the unfiltered discover listing.
func (c *Client) DiscoverMovies(ctx context.Context, page int) (*Page[Movie], error) {
	return c.moviePage(ctx, "/discover/movie", page, nil)
}

// NowPlaying returns one page of movies currently in theatres.
func (c *Client) NowPlaying(ctx context.Context, page int) (*Page[Movie], error) {
	return c.moviePage(ctx, "/movie/now_playing", page, nil)
}

// Upcoming returns one page of upcoming releases.
func (c *Client) Upcoming(ctx context.Context, page int) (*Page[Movie], error) {
	return c.moviePage(ctx, "/movie/upcoming", page, nil)
}

// TopRated returns one page of the top rated movies.
func (c *Client) TopRated(ctx context.Context, page int) (*Page[Movie], error) {
	return c.moviePage(ctx, "/movie/top_rated", page, nil)
}

// DiscoverByGenre returns one page of movies tagged with genreID.
// An empty genreID leaves the listing unfiltered.
func (c *Client) DiscoverByGenre(ctx context.Context, genreID string, page int) (*Page[Movie], error) {
	var params url.Values
	if genreID != "" {
		params = url.Values{"with_genres": {genreID}}
	}
	return c.moviePage(ctx, "/discover/movie", page, params)
}

// SearchMovies searches for movies by title.
func (c *Client) SearchMovies(ctx context.Context, query string) (*Page[Movie], error) {
	var resp Page[Movie]
	if err := c.get(ctx, "/search/movie", url.Values{"query": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return &resp, nil
}

// MovieDetails retrieves full details for a movie by TMDb ID.
func (c *Client) MovieDetails(ctx context.Context, id string) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.get(ctx, "/movie/"+url.PathEscape(id), nil, &details); err != nil {
		return nil, fmt.Errorf("get movie %q: %w", id, err)
	}
	return &details, nil
}

// MovieCredits retrieves the cast of a movie by TMDb ID.
func (c *Client) MovieCredits(ctx context.Context, id string) (*Credits, error) {
	var credits Credits
	path := fmt.Sprintf("/movie/%s/credits", url.PathEscape(id))
	if err := c.get(ctx, path, nil, &credits); err != nil {
		return nil, fmt.Errorf("get credits for %q: %w", id, err)
	}
	return &credits, nil
}

// Genres returns the movie genre catalog.
func (c *Client) Genres(ctx context.Context) (*GenreList, error) {
	var list GenreList
	if err := c.get(ctx, "/genre/movie/list", nil, &list); err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return &list, nil
}

// PosterURL returns the full URL for a poster path.
func PosterURL(posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	return imageBaseURL + size + posterPath
}

func (c *Client) moviePage(ctx context.Context, path string, page int, params url.Values) (*Page[Movie], error) {
	if page < 1 {
		page = 1
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("page", strconv.Itoa(page))

	var resp Page[Movie]
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, fmt.Errorf("list %s page %d: %w", strings.TrimPrefix(path, "/"), page, err)
	}
	return &resp, nil
}

// get performs an authenticated GET request to the TMDb API and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	q := u.Query()
	if c.accessToken == "" {
		q.Set("api_key", c.apiKey)
	}
	if c.language != "" {
		q.Set("language", c.language)
	}
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

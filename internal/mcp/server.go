package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/cinebrowse/internal/store"
)

// Deps holds the collaborators MCP tool handlers call into.
type Deps struct {
	Store *store.Store
}

// Server wraps an MCP SDK server with the movie browsing tools.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all tools registered.
func NewServer(deps Deps, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cinebrowse",
			Version: version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(listMoviesTool(), s.handleListMovies)
	s.server.AddTool(listMoviesByGenreTool(), s.handleListMoviesByGenre)
	s.server.AddTool(getMovieDetailsTool(), s.handleGetMovieDetails)
	s.server.AddTool(getMovieCreditsTool(), s.handleGetMovieCredits)
	s.server.AddTool(listGenresTool(), s.handleListGenres)
	s.server.AddTool(searchMovieTool(), s.handleSearchMovie)
	s.server.AddTool(getStateTool(), s.handleGetState)
}

func listMoviesTool() *mcpsdk.Tool {
	categories := make([]any, 0, len(store.Categories))
	for _, c := range store.Categories {
		categories = append(categories, string(c))
	}
	return &mcpsdk.Tool{
		Name:        "list_movies",
		Description: "List one page of movies from a TMDb listing. Returns the page number, total pages, and movies with IDs, titles, release dates, and ratings.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"enum":        categories,
					"description": "Which listing to read (default popular)",
				},
				"page": pageProperty(),
			},
		},
	}
}

func listMoviesByGenreTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_movies_by_genre",
		Description: "List one page of movies in a genre. Use list_genres to find genre IDs.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"genre_id": map[string]any{
					"type":        "integer",
					"description": "The TMDb genre ID",
				},
				"page": pageProperty(),
			},
			"required": []any{"genre_id"},
		},
	}
}

func getMovieDetailsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_movie_details",
		Description: "Get detailed information about a movie by its TMDb ID. Returns runtime, genres, tagline, full overview, and ratings.",
		InputSchema: tmdbIDSchema("The TMDb ID of the movie"),
	}
}

func getMovieCreditsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_movie_credits",
		Description: fmt.Sprintf("Get the top-billed cast of a movie by its TMDb ID (at most %d people).", store.MaxCredits),
		InputSchema: tmdbIDSchema("The TMDb ID of the movie"),
	}
}

func listGenresTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_genres",
		Description: "List all movie genres with their TMDb IDs.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func searchMovieTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_movie",
		Description: "Search for a movie by title. Returns matching movies with their TMDb IDs, titles, release dates, and ratings.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The movie title to search for",
				},
			},
			"required": []any{"query"},
		},
	}
}

func getStateTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_state",
		Description: "Return everything fetched so far in this session: current listing, selected movie, cast, genres, and search results.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func pageProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": "1-based page number (default 1)",
	}
}

func tmdbIDSchema(desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tmdb_id": map[string]any{
				"type":        "integer",
				"description": desc,
			},
		},
		"required": []any{"tmdb_id"},
	}
}

// Tool handlers: parse arguments, run a store operation, return JSON text content.

func (s *Server) handleListMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("movie store not configured"), nil
	}

	var args struct {
		Category string `json:"category"`
	}
	if err := unmarshalArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}
	category := store.CategoryPopular
	if args.Category != "" {
		c, err := store.ParseCategory(args.Category)
		if err != nil {
			return toolError(err.Error()), nil
		}
		category = c
	}
	page, err := optionalInt(req.Params.Arguments, "page", 1)
	if err != nil {
		return toolError(err.Error()), nil
	}

	result, err := s.deps.Store.ListCategory(ctx, category, page)
	if err != nil {
		return opError(err), nil
	}
	return toolJSON(result)
}

func (s *Server) handleListMoviesByGenre(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("movie store not configured"), nil
	}

	genreID, err := extractIntFromArgs(req.Params.Arguments, "genre_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	page, err := optionalInt(req.Params.Arguments, "page", 1)
	if err != nil {
		return toolError(err.Error()), nil
	}

	result, err := s.deps.Store.ListByGenre(ctx, page, strconv.Itoa(genreID))
	if err != nil {
		return opError(err), nil
	}
	return toolJSON(result)
}

func (s *Server) handleGetMovieDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("movie store not configured"), nil
	}

	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	details, err := s.deps.Store.GetDetails(ctx, strconv.Itoa(tmdbID))
	if err != nil {
		return opError(err), nil
	}
	return toolJSON(details)
}

func (s *Server) handleGetMovieCredits(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("movie store not configured"), nil
	}

	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	credits, err := s.deps.Store.GetCredits(ctx, strconv.Itoa(tmdbID))
	if err != nil {
		return opError(err), nil
	}
	return toolJSON(store.TopCast(credits))
}

func (s *Server) handleListGenres(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("movie store not configured"), nil
	}

	list, err := s.deps.Store.ListGenres(ctx)
	if err != nil {
		return opError(err), nil
	}
	return toolJSON(list.Genres)
}

func (s *Server) handleSearchMovie(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("movie store not configured"), nil
	}

	query, err := extractStringFromArgs(req.Params.Arguments, "query")
	if err != nil {
		return toolError(err.Error()), nil
	}

	result, err := s.deps.Store.SearchByTitle(ctx, query)
	if err != nil {
		return opError(err), nil
	}
	return toolJSON(result)
}

func (s *Server) handleGetState(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("movie store not configured"), nil
	}
	return toolJSON(s.deps.Store.State())
}

// Helper functions.

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// opError reports a failed store operation. When TMDb sent an error body it
// is attached verbatim as a second content block.
func opError(err error) *mcpsdk.CallToolResult {
	result := toolError(store.Describe(err))
	var opErr *store.OpError
	if errors.As(err, &opErr) && opErr.HasPayload() {
		result.Content = append(result.Content, &mcpsdk.TextContent{Text: string(opErr.Payload)})
	}
	return result
}

func unmarshalArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := unmarshalArgs(raw, &args); err != nil {
		return 0, err
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch v := val.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}

// optionalInt is extractIntFromArgs with a fallback for an absent key.
func optionalInt(raw json.RawMessage, key string, fallback int) (int, error) {
	var args map[string]any
	if err := unmarshalArgs(raw, &args); err != nil {
		return 0, err
	}
	if _, ok := args[key]; !ok {
		return fallback, nil
	}
	return extractIntFromArgs(raw, key)
}

// extractStringFromArgs extracts a string argument from raw JSON arguments.
func extractStringFromArgs(raw json.RawMessage, key string) (string, error) {
	var args map[string]any
	if err := unmarshalArgs(raw, &args); err != nil {
		return "", err
	}

	val, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}

	s, ok := val.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return s, nil
}

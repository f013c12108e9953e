package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/moviecenter/internal/core"
	"github.com/vadimtrunov/moviecenter/internal/lottery"
	"github.com/vadimtrunov/moviecenter/internal/watchlist"
)

// Deps holds the dependencies of the MCP tool handlers. Any may be nil; the
// tools that need a missing dependency report an error result.
type Deps struct {
	Catalog   core.Catalog
	Watchlist *watchlist.Store
	Lottery   *lottery.Lottery
}

// Server wraps an MCP SDK server with MovieCenter tool handlers.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all MovieCenter tools registered.
func NewServer(deps Deps, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "moviecenter",
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
	s.server.AddTool(popularMoviesTool(), s.handlePopularMovies)
	s.server.AddTool(discoverMoviesTool(), s.handleDiscoverMovies)
	s.server.AddTool(searchMoviesTool(), s.handleSearchMovies)
	s.server.AddTool(getMovieDetailsTool(), s.handleGetMovieDetails)
	s.server.AddTool(listWatchlistTool(), s.handleListWatchlist)
	s.server.AddTool(addToWatchlistTool(), s.handleAddToWatchlist)
	s.server.AddTool(removeFromWatchlistTool(), s.handleRemoveFromWatchlist)
	s.server.AddTool(spinLotteryTool(), s.handleSpinLottery)
}

func popularMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "popular_movies",
		Description: "List the currently popular movies on TMDb with their IDs, titles, release dates and ratings.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func discoverMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "discover_movies",
		Description: "Browse the TMDb discovery listing sorted by popularity. Returns one page of movies and the total page count.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"page": map[string]any{
					"type":        "integer",
					"description": "Page number, starting at 1 (default 1)",
				},
			},
		},
	}
}

func searchMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_movies",
		Description: "Search for movies by title. Returns matching movies with their TMDb IDs, titles, release dates and ratings.",
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

func getMovieDetailsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_movie_details",
		Description: "Get detailed information about a movie by its TMDb ID, including cast, crew, trailers and reviews.",
		InputSchema: tmdbIDSchema("The TMDb ID of the movie"),
	}
}

func listWatchlistTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_watchlist",
		Description: "List the movies on the user's watchlist.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sort": map[string]any{
					"type":        "string",
					"enum":        []any{"added", "title", "rating"},
					"description": "Sort order (default added)",
				},
			},
		},
	}
}

func addToWatchlistTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "add_to_watchlist",
		Description: "Add a movie to the user's watchlist by its TMDb ID. Adding a movie that is already on the watchlist does nothing.",
		InputSchema: tmdbIDSchema("The TMDb ID of the movie to add"),
	}
}

func removeFromWatchlistTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "remove_from_watchlist",
		Description: "Remove a movie from the user's watchlist by its TMDb ID.",
		InputSchema: tmdbIDSchema("The TMDb ID of the movie to remove"),
	}
}

func spinLotteryTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "spin_lottery",
		Description: "Pick a random movie to watch, either from the popular listing or from the watchlist.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"source": map[string]any{
					"type":        "string",
					"enum":        []any{"popular", "watchlist"},
					"description": "Where to draw candidates from (default popular)",
				},
			},
		},
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

// Tool handlers: each parses arguments, calls a dependency, returns JSON text content.

func (s *Server) handlePopularMovies(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDb client not configured"), nil
	}

	page, err := s.deps.Catalog.Popular(ctx)
	if err != nil {
		return toolError(fmt.Sprintf("tmdb popular failed: %v", err)), nil
	}
	return toolJSON(page.Movies)
}

func (s *Server) handleDiscoverMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDb client not configured"), nil
	}

	params := core.DefaultDiscoverParams()
	if page, ok, err := optionalIntFromArgs(req.Params.Arguments, "page"); err != nil {
		return toolError(err.Error()), nil
	} else if ok {
		params.Page = page
	}

	page, err := s.deps.Catalog.Discover(ctx, params)
	if err != nil {
		return toolError(fmt.Sprintf("tmdb discover failed: %v", err)), nil
	}
	return toolJSON(page)
}

func (s *Server) handleSearchMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDb client not configured"), nil
	}

	query, err := extractStringFromArgs(req.Params.Arguments, "query")
	if err != nil {
		return toolError(err.Error()), nil
	}

	page, err := s.deps.Catalog.Search(ctx, query)
	if err != nil {
		return toolError(fmt.Sprintf("tmdb search failed: %v", err)), nil
	}
	return toolJSON(page.Movies)
}

func (s *Server) handleGetMovieDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDb client not configured"), nil
	}

	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	details, err := s.deps.Catalog.Details(ctx, tmdbID)
	if err != nil {
		return toolError(fmt.Sprintf("tmdb get movie failed: %v", err)), nil
	}
	return toolJSON(details)
}

func (s *Server) handleListWatchlist(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Watchlist == nil {
		return toolError("watchlist not configured"), nil
	}

	order := watchlist.SortAdded
	if raw, ok, err := optionalStringFromArgs(req.Params.Arguments, "sort"); err != nil {
		return toolError(err.Error()), nil
	} else if ok {
		if order, err = watchlist.ParseSortOrder(raw); err != nil {
			return toolError(err.Error()), nil
		}
	}
	return toolJSON(s.deps.Watchlist.Sorted(order))
}

func (s *Server) handleAddToWatchlist(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Watchlist == nil || s.deps.Catalog == nil {
		return toolError("watchlist not configured"), nil
	}

	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	if s.deps.Watchlist.Contains(tmdbID) {
		return toolJSON(map[string]any{"status": "already_present", "tmdb_id": tmdbID})
	}

	details, err := s.deps.Catalog.Details(ctx, tmdbID)
	if err != nil {
		return toolError(fmt.Sprintf("tmdb get movie failed: %v", err)), nil
	}

	added, err := s.deps.Watchlist.Add(details.Basic())
	if err != nil {
		return toolError(fmt.Sprintf("failed to add movie: %v", err)), nil
	}
	status := "added"
	if !added {
		status = "already_present"
	}
	s.logger.Info("watchlist updated via MCP", slog.String("status", status), slog.Int("movie_id", tmdbID))

	return toolJSON(map[string]any{
		"status":  status,
		"title":   details.Title,
		"tmdb_id": tmdbID,
	})
}

func (s *Server) handleRemoveFromWatchlist(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Watchlist == nil {
		return toolError("watchlist not configured"), nil
	}

	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	if !s.deps.Watchlist.Contains(tmdbID) {
		return toolJSON(map[string]any{"status": "not_present", "tmdb_id": tmdbID})
	}
	if err := s.deps.Watchlist.Remove(tmdbID); err != nil {
		return toolError(fmt.Sprintf("failed to remove movie: %v", err)), nil
	}
	return toolJSON(map[string]any{"status": "removed", "tmdb_id": tmdbID})
}

func (s *Server) handleSpinLottery(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Lottery == nil {
		return toolError("lottery not configured"), nil
	}

	source := "popular"
	if raw, ok, err := optionalStringFromArgs(req.Params.Arguments, "source"); err != nil {
		return toolError(err.Error()), nil
	} else if ok {
		source = raw
	}

	var candidates []core.Movie
	switch source {
	case "popular":
		if s.deps.Catalog == nil {
			return toolError("TMDb client not configured"), nil
		}
		page, err := s.deps.Catalog.Popular(ctx)
		if err != nil {
			return toolError(fmt.Sprintf("tmdb popular failed: %v", err)), nil
		}
		candidates = page.Movies
	case "watchlist":
		if s.deps.Watchlist == nil {
			return toolError("watchlist not configured"), nil
		}
		candidates = s.deps.Watchlist.Movies()
	default:
		return toolError(fmt.Sprintf("source must be popular or watchlist, got %q", source)), nil
	}

	// No visual spin here, so the carousel is returned only for parity with the TUI.
	carousel := s.deps.Lottery.Carousel(candidates)
	winner, err := s.deps.Lottery.Pick(candidates)
	if err != nil {
		return toolError(fmt.Sprintf("no %s movies to pick from", source)), nil
	}

	return toolJSON(map[string]any{
		"source":   source,
		"winner":   winner,
		"carousel": carousel,
	})
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

func parseArgs(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

// extractIntFromArgs extracts a required integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	n, ok, err := optionalIntFromArgs(raw, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	return n, nil
}

func optionalIntFromArgs(raw json.RawMessage, key string) (int, bool, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return 0, false, err
	}

	val, ok := args[key]
	if !ok || val == nil {
		return 0, false, nil
	}

	switch v := val.(type) {
	case float64:
		return int(v), true, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}

// extractStringFromArgs extracts a required non-empty string argument.
func extractStringFromArgs(raw json.RawMessage, key string) (string, error) {
	s, ok, err := optionalStringFromArgs(raw, key)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return s, nil
}

func optionalStringFromArgs(raw json.RawMessage, key string) (string, bool, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", false, err
	}

	val, ok := args[key]
	if !ok || val == nil {
		return "", false, nil
	}
	s, ok := val.(string)
	if !ok {
		return "", false, fmt.Errorf("%s must be a string, got %T", key, val)
	}
	return s, true, nil
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/moviecenter/internal/catalog"
	"github.com/vadimtrunov/moviecenter/internal/config"
	"github.com/vadimtrunov/moviecenter/internal/core"
	"github.com/vadimtrunov/moviecenter/internal/lottery"
	"github.com/vadimtrunov/moviecenter/internal/query"
	"github.com/vadimtrunov/moviecenter/internal/storage"
	"github.com/vadimtrunov/moviecenter/internal/watchlist"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleRating  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow

	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true) // cyan bold

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

// services bundles everything the commands work with.
type services struct {
	catalog   *catalog.Client
	queries   *query.MovieQueries
	store     core.KeyValueStore
	watchlist *watchlist.Store
	lottery   *lottery.Lottery
	pageSize  int
}

// initServices creates the catalog client, query cache, storage, watchlist and lottery.
func initServices(cfg *config.Config, logger *slog.Logger, inMemory bool) (*services, error) {
	client := catalog.New(catalog.Config{
		APIKey:         cfg.TMDb.APIKey,
		BaseURL:        cfg.TMDb.BaseURL,
		RequestTimeout: cfg.TMDb.RequestTimeout,
		PopularTimeout: cfg.TMDb.PopularTimeout,
		PopularTTL:     cfg.TMDb.PopularTTL,
	}, logger)
	logger.Debug("TMDb client initialized", slog.String("url", sanitizeURL(cfg.TMDb.BaseURL)))

	store, err := openStore(cfg, inMemory)
	if err != nil {
		return nil, err
	}

	return &services{
		catalog:   client,
		queries:   query.NewMovieQueries(client, query.NewCache(cfg.Cache.TTL, logger)),
		store:     store,
		watchlist: watchlist.Open(store, logger),
		lottery: lottery.New(
			lottery.WithCarouselSize(cfg.Lottery.CarouselSize),
			lottery.WithSpinDuration(cfg.Lottery.SpinDuration),
		),
		pageSize: cfg.Browse.PageSize,
	}, nil
}

func openStore(cfg *config.Config, inMemory bool) (core.KeyValueStore, error) {
	if inMemory {
		return storage.NewMemory(), nil
	}
	db, err := storage.OpenBolt(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open watchlist storage %s: %w", cfg.Storage.Path, err)
	}
	return db, nil
}

// Close releases the storage.
func (s *services) Close() error {
	return s.store.Close()
}

// discoverParams returns the listing parameters for page with the given page size.
// A non-positive pageSize keeps the default.
func discoverParams(pageSize, page int) core.DiscoverParams {
	p := core.DefaultDiscoverParams()
	p.Page = page
	if pageSize > 0 {
		p.PageSize = pageSize
	}
	return p
}

// setupCommandLogger logs to stderr, or nowhere when w is nil.
func setupCommandLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return config.SetupLogger(cfg.App.LogLevel, w)
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

// formatMovieLine renders one movie as "Title (Year)  ★ 8.4  #id".
func formatMovieLine(m core.Movie) string {
	title := m.Title
	if y := m.Year(); y > 0 {
		title = fmt.Sprintf("%s (%d)", title, y)
	}
	return fmt.Sprintf("%s  %s  %s",
		styleTitle.Render(title),
		styleRating.Render(fmt.Sprintf("★ %.1f", m.VoteAverage)),
		styleDim.Render(fmt.Sprintf("#%d", m.ID)),
	)
}

// formatMovieList renders a numbered list of movies.
func formatMovieList(movies []core.Movie, empty string) string {
	if len(movies) == 0 {
		return styleDim.Render(empty)
	}
	var sb strings.Builder
	for i, m := range movies {
		sb.WriteString(styleDim.Render(fmt.Sprintf("%2d. ", i+1)))
		sb.WriteString(formatMovieLine(m))
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// formatDetails renders the detail view of a movie.
func formatDetails(d *core.MovieDetails, inWatchlist bool) string {
	var sb strings.Builder

	sb.WriteString(formatMovieLine(d.Movie))
	sb.WriteString("\n")
	if d.Tagline != "" {
		sb.WriteString(styleDim.Render(d.Tagline) + "\n")
	}

	var facts []string
	if d.Runtime > 0 {
		facts = append(facts, fmt.Sprintf("%d min", d.Runtime))
	}
	if genres := d.GenreNames(); len(genres) > 0 {
		facts = append(facts, strings.Join(genres, ", "))
	}
	if dir := d.Director(); dir != "" {
		facts = append(facts, "directed by "+dir)
	}
	if len(facts) > 0 {
		sb.WriteString(styleInfo.Render(strings.Join(facts, " · ")) + "\n")
	}

	if d.Overview != "" {
		sb.WriteString("\n" + d.Overview + "\n")
	}

	if cast := d.TopCast(10); len(cast) > 0 {
		sb.WriteString("\n" + styleTitle.Render("Cast") + "\n")
		for _, c := range cast {
			line := c.Name
			if c.Character != "" {
				line += styleDim.Render(" as " + c.Character)
			}
			sb.WriteString("  " + line + "\n")
		}
	}

	if t := d.Trailer(); t != nil {
		sb.WriteString("\n" + styleTitle.Render("Trailer") + "  " + t.URL() + "\n")
	}

	if d.Reviews != nil && len(d.Reviews.Results) > 0 {
		sb.WriteString("\n" + styleTitle.Render(fmt.Sprintf("Reviews (%d)", len(d.Reviews.Results))) + "\n")
		for _, r := range d.Reviews.Results[:min(3, len(d.Reviews.Results))] {
			sb.WriteString("  " + styleInfo.Render(r.Author) + ": " + truncate(r.Content, 200) + "\n")
		}
	}

	if poster := d.PosterURL("w500"); poster != "" {
		sb.WriteString("\n" + styleDim.Render("Poster: "+poster) + "\n")
	}

	if inWatchlist {
		sb.WriteString("\n" + styleSuccess.Render("✓ On your watchlist"))
	} else {
		sb.WriteString("\n" + styleDim.Render("Not on your watchlist"))
	}
	return sb.String()
}

// truncate shortens s to at most n runes, flattening newlines.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

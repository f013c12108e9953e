package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPopularCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "popular",
		Short: "List popular movies",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withServices(func(ctx context.Context, svc *services) error {
				return runTask(ctx, "Fetching popular movies...", func(ctx context.Context) (string, error) {
					page, err := svc.catalog.Popular(ctx)
					if err != nil {
						return "", err
					}
					return styleHeader.Render("Popular movies") + "\n" +
						formatMovieList(page.Movies, "No popular movies available right now."), nil
				})
			})
		},
	}
}

func newDiscoverCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List one page of the catalog, most popular first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1, got %d", page)
			}
			return withServices(func(ctx context.Context, svc *services) error {
				return runTask(ctx, "Loading catalog...", func(ctx context.Context) (string, error) {
					p, err := svc.queries.Discover.Query(ctx, discoverParams(svc.pageSize, page))
					if err != nil {
						return "", err
					}
					header := styleHeader.Render(fmt.Sprintf("Catalog, page %d of %d", p.Page, p.TotalPages))
					return header + "\n" + formatMovieList(p.Movies, "No movies found."), nil
				})
			})
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "search [title]",
		Short:   "Search movies by title",
		Example: `  moviecenter search "blade runner"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			return withServices(func(ctx context.Context, svc *services) error {
				return runTask(ctx, "Searching...", func(ctx context.Context) (string, error) {
					page, err := svc.queries.Search.Query(ctx, q)
					if err != nil {
						return "", err
					}
					return formatMovieList(page.Movies, "No movies found matching your search"), nil
				})
			})
		},
	}
}

func newMovieCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "movie [tmdb-id]",
		Short:   "Show movie details",
		Example: "  moviecenter movie 27205",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return withServices(func(ctx context.Context, svc *services) error {
				return runTask(ctx, "Loading movie...", func(ctx context.Context) (string, error) {
					details, err := svc.queries.Movie.Query(ctx, id)
					if err != nil {
						return "", err
					}
					return formatDetails(details, svc.watchlist.Contains(id)), nil
				})
			})
		},
	}
}

// parseMovieID parses a positive TMDb ID.
func parseMovieID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q: must be a positive number", s)
	}
	return id, nil
}

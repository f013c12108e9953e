package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviecenter/internal/watchlist"
)

// newWatchlistCmd returns the "watchlist" subcommand group.
func newWatchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage your watchlist",
	}

	cmd.AddCommand(
		newWatchlistListCmd(),
		newWatchlistAddCmd(),
		newWatchlistRemoveCmd(),
	)
	return cmd
}

func newWatchlistListCmd() *cobra.Command {
	var sortBy string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the movies on your watchlist",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			order, err := watchlist.ParseSortOrder(sortBy)
			if err != nil {
				return err
			}
			return withServices(func(_ context.Context, svc *services) error {
				fmt.Println(styleHeader.Render(fmt.Sprintf("Watchlist (%d)", svc.watchlist.Len())))
				fmt.Println(formatMovieList(svc.watchlist.Sorted(order), "Your watchlist is empty"))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(watchlist.SortAdded), "sort order: added, title or rating")
	return cmd
}

func newWatchlistAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [tmdb-id]",
		Short: "Add a movie to your watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return withServices(func(ctx context.Context, svc *services) error {
				if svc.watchlist.Contains(id) {
					fmt.Println(styleDim.Render("Already on your watchlist."))
					return nil
				}
				return runTask(ctx, "Adding to watchlist...", func(ctx context.Context) (string, error) {
					details, err := svc.queries.Movie.Query(ctx, id)
					if err != nil {
						return "", err
					}
					if _, err := svc.watchlist.Add(details.Basic()); err != nil {
						return "", err
					}
					return styleSuccess.Render("✓ Added ") + formatMovieLine(details.Movie), nil
				})
			})
		},
	}
}

func newWatchlistRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove [tmdb-id]",
		Aliases: []string{"rm"},
		Short:   "Remove a movie from your watchlist",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return withServices(func(_ context.Context, svc *services) error {
				if !svc.watchlist.Contains(id) {
					fmt.Println(styleDim.Render("Not on your watchlist."))
					return nil
				}
				if err := svc.watchlist.Remove(id); err != nil {
					return err
				}
				fmt.Println(styleSuccess.Render(fmt.Sprintf("✓ Removed #%d", id)))
				return nil
			})
		},
	}
}

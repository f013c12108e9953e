package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviecenter/internal/core"
	"github.com/vadimtrunov/moviecenter/internal/lottery"
)

// Lottery candidate pools.
const (
	sourcePopular   = "popular"
	sourceWatchlist = "watchlist"
)

func newLotteryCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "lottery",
		Short: "Pick a random movie to watch",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if from != sourcePopular && from != sourceWatchlist {
				return fmt.Errorf("--from must be %s or %s, got %q", sourcePopular, sourceWatchlist, from)
			}
			return withServices(func(ctx context.Context, svc *services) error {
				return runTask(ctx, "Spinning the wheel...", func(ctx context.Context) (string, error) {
					candidates, err := lotteryCandidates(ctx, svc, from)
					if err != nil {
						return "", err
					}
					res, err := svc.lottery.Spin(ctx, candidates)
					if err != nil {
						return "", err
					}
					return formatLotteryResult(res), nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", sourcePopular, "candidate pool: popular or watchlist")
	return cmd
}

// lotteryCandidates returns the movies to draw from.
func lotteryCandidates(ctx context.Context, svc *services, source string) ([]core.Movie, error) {
	switch source {
	case sourceWatchlist:
		movies := svc.watchlist.Movies()
		if len(movies) == 0 {
			return nil, fmt.Errorf("your watchlist is empty: %w", lottery.ErrNoCandidates)
		}
		return movies, nil
	default:
		page, err := svc.catalog.Popular(ctx)
		if err != nil {
			return nil, err
		}
		if len(page.Movies) == 0 {
			return nil, fmt.Errorf("no popular movies right now: %w", lottery.ErrNoCandidates)
		}
		return page.Movies, nil
	}
}

func formatLotteryResult(res lottery.Result) string {
	titles := make([]string, 0, len(res.Carousel))
	for _, m := range res.Carousel {
		titles = append(titles, m.Title)
	}
	return styleDim.Render("On the wheel: "+strings.Join(titles, " · ")) + "\n\n" +
		styleSuccess.Render("Tonight you're watching ") + formatMovieLine(res.Winner)
}

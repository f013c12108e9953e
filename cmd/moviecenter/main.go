package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	configPath string
	ephemeral  bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moviecenter",
		Short: "Browse movies, keep a watchlist, pick something to watch",
		Long: "MovieCenter is a terminal movie catalog backed by TMDb.\n" +
			"Browse and search movies, keep a persistent watchlist, and let the lottery decide what to watch.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/moviecenter.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the watchlist in memory only")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBrowseCmd(),
		newPopularCmd(),
		newDiscoverCmd(),
		newSearchCmd(),
		newMovieCmd(),
		newWatchlistCmd(),
		newLotteryCmd(),
		newMCPServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("MovieCenter v%s\n", version)
		},
	}
}

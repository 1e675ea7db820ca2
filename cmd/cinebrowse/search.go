package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/cinebrowse/internal/store"
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <title>",
		Short: "Search movies by title",
		Example: `  cinebrowse search dune
  cinebrowse search "the godfather"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return runSearch(ctx, cmd.OutOrStdout(), st, strings.Join(args, " "))
		},
	}
}

func runSearch(ctx context.Context, w io.Writer, st *store.Store, query string) error {
	result, err := st.SearchByTitle(ctx, query)
	if err != nil {
		return err
	}
	printMovies(w, fmt.Sprintf("Results for %q", query), result.Results, 0, nil)
	return nil
}

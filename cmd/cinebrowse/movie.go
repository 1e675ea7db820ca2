package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/cinebrowse/internal/store"
)

const detailWidth = 80

func newMovieCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "movie <tmdb-id>",
		Short:   "Show a movie's details and cast",
		Example: "  cinebrowse movie 27205",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return runMovie(ctx, cmd.OutOrStdout(), st, args[0])
		},
	}
}

// runMovie loads details and credits together. A movie whose credits fail
// still prints, followed by a warning.
func runMovie(ctx context.Context, w io.Writer, st *store.Store, id string) error {
	movie, cast, err := st.LoadMovie(ctx, id)
	if movie == nil {
		return err
	}

	fmt.Fprint(w, renderMovie(movie, cast, detailWidth))
	if err != nil {
		fmt.Fprintln(w, styleDim.Render("cast unavailable: "+store.Describe(err)))
	}
	return nil
}

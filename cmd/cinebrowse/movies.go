package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
	"github.com/vadimtrunov/cinebrowse/internal/store"
)

type moviesOptions struct {
	category string
	genre    string
	page     int
}

func newMoviesCmd() *cobra.Command {
	var opts moviesOptions
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "List a page of movies",
		Long:  "List one page of popular, now playing, upcoming, or top rated movies, or of movies in a genre.",
		Example: `  cinebrowse movies
  cinebrowse movies --category top-rated --page 2
  cinebrowse movies --genre 878`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, st, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return runMovies(ctx, cmd.OutOrStdout(), st, opts)
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", string(store.CategoryPopular), "popular, now-playing, upcoming, or top-rated")
	cmd.Flags().StringVar(&opts.genre, "genre", "", "genre ID (see 'cinebrowse genres'); overrides --category")
	cmd.Flags().IntVar(&opts.page, "page", 1, "page number")
	return cmd
}

func runMovies(ctx context.Context, w io.Writer, st *store.Store, opts moviesOptions) error {
	var (
		title  string
		result *tmdb.Page[tmdb.Movie]
		err    error
	)
	if opts.genre != "" {
		title = "Genre " + opts.genre
		result, err = st.ListByGenre(ctx, opts.page, opts.genre)
	} else {
		category, parseErr := store.ParseCategory(opts.category)
		if parseErr != nil {
			return parseErr
		}
		title = category.Title()
		result, err = st.ListCategory(ctx, category, opts.page)
	}
	if err != nil {
		return err
	}

	printMovies(w, title, result.Results, result.Page, st.State().Genres)
	return nil
}

func newGenresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List movie genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, st, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return runGenres(ctx, cmd.OutOrStdout(), st)
		},
	}
}

func runGenres(ctx context.Context, w io.Writer, st *store.Store) error {
	list, err := st.ListGenres(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, styleHeader.Render("Genres"))
	for _, g := range list.Genres {
		fmt.Fprintf(w, "%s  %s\n", styleDim.Render(fmt.Sprintf("%6d", g.ID)), g.Name)
	}
	return nil
}

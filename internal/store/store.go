// Package store holds the movie browser's in-memory state: the latest result
// of each remote query, merged in as operations complete.
//
// Operations block until the remote call returns. A successful call
// overwrites its own fields and nothing else; a failed call leaves the
// state untouched and returns an *OpError. Two calls writing the same field
// race freely: whichever completes last wins.
package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
)

const (
	// MaxCredits is the number of cast entries kept from a credits fetch.
	MaxCredits = 14

	initialPage       = 1
	initialTotalPages = 500
)

// MovieAPI is the remote collaborator the store delegates to.
// *tmdb.Client implements it.
type MovieAPI interface {
	DiscoverMovies(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error)
	NowPlaying(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error)
	Upcoming(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error)
	TopRated(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error)
	MovieDetails(ctx context.Context, id string) (*tmdb.MovieDetails, error)
	MovieCredits(ctx context.Context, id string) (*tmdb.Credits, error)
	DiscoverByGenre(ctx context.Context, genreID string, page int) (*tmdb.Page[tmdb.Movie], error)
	Genres(ctx context.Context) (*tmdb.GenreList, error)
	SearchMovies(ctx context.Context, query string) (*tmdb.Page[tmdb.Movie], error)
}

var _ MovieAPI = (*tmdb.Client)(nil)

// State is the store's content at one point in time.
type State struct {
	Movies     []tmdb.Movie       `json:"movies"`
	Movie      *tmdb.MovieDetails `json:"movie"`
	Credits    []tmdb.CastMember  `json:"credits"`
	Genres     []tmdb.Genre       `json:"genres"`
	Search     []tmdb.Movie       `json:"search"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
}

// InitialState returns the state a new store starts with.
func InitialState() State {
	return State{
		Movies:     []tmdb.Movie{},
		Credits:    []tmdb.CastMember{},
		Genres:     []tmdb.Genre{},
		Search:     []tmdb.Movie{},
		Page:       initialPage,
		TotalPages: initialTotalPages,
	}
}

// clone returns a deep copy that shares no slices with s.
func (s State) clone() State {
	out := s
	out.Movies = cloneMovies(s.Movies)
	out.Credits = slices.Clone(s.Credits)
	out.Genres = slices.Clone(s.Genres)
	out.Search = cloneMovies(s.Search)
	out.Movie = cloneDetails(s.Movie)
	return out
}

func cloneMovies(ms []tmdb.Movie) []tmdb.Movie {
	if ms == nil {
		return nil
	}
	out := make([]tmdb.Movie, len(ms))
	for i, m := range ms {
		m.GenreIDs = slices.Clone(m.GenreIDs)
		out[i] = m
	}
	return out
}

func cloneDetails(d *tmdb.MovieDetails) *tmdb.MovieDetails {
	if d == nil {
		return nil
	}
	m := *d
	m.Genres = slices.Clone(d.Genres)
	m.ProductionCompanies = slices.Clone(d.ProductionCompanies)
	m.SpokenLanguages = slices.Clone(d.SpokenLanguages)
	return &m
}

// TopCast returns a copy of the first MaxCredits cast entries of c.
func TopCast(c *tmdb.Credits) []tmdb.CastMember {
	if c == nil {
		return nil
	}
	return slices.Clone(c.Cast[:min(len(c.Cast), MaxCredits)])
}

// Listener receives a snapshot after every successful merge.
//
// Listeners run on the goroutine that completed the operation, after the
// state lock is released. Snapshots from concurrent operations can arrive
// out of completion order, so a listener that needs the newest state should
// read State rather than trust the last snapshot it received.
type Listener func(State)

// Store is the movie state container. Create one with New and share it.
type Store struct {
	api    MovieAPI
	logger *slog.Logger

	mu    sync.RWMutex
	state State

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New creates a store backed by api, in its initial state.
func New(api MovieAPI, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:       api,
		logger:    logger,
		state:     InitialState(),
		listeners: make(map[int]Listener),
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to be called after every successful operation.
// The returned function removes the registration.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// ListAll fetches one page of the general movie listing into Movies.
func (s *Store) ListAll(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error) {
	return run(ctx, s, OpListAll, func(ctx context.Context) (*tmdb.Page[tmdb.Movie], error) {
		return s.api.DiscoverMovies(ctx, page)
	}, mergeMovies)
}

// ListNowPlaying fetches one page of movies in theatres into Movies.
func (s *Store) ListNowPlaying(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error) {
	return run(ctx, s, OpListNowPlaying, func(ctx context.Context) (*tmdb.Page[tmdb.Movie], error) {
		return s.api.NowPlaying(ctx, page)
	}, mergeMovies)
}

// ListUpcoming fetches one page of upcoming releases into Movies.
func (s *Store) ListUpcoming(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error) {
	return run(ctx, s, OpListUpcoming, func(ctx context.Context) (*tmdb.Page[tmdb.Movie], error) {
		return s.api.Upcoming(ctx, page)
	}, mergeMovies)
}

// ListTopRated fetches one page of top rated movies into Movies.
func (s *Store) ListTopRated(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error) {
	return run(ctx, s, OpListTopRated, func(ctx context.Context) (*tmdb.Page[tmdb.Movie], error) {
		return s.api.TopRated(ctx, page)
	}, mergeMovies)
}

// ListByGenre fetches one page of movies in a genre into Movies.
func (s *Store) ListByGenre(ctx context.Context, page int, genreID string) (*tmdb.Page[tmdb.Movie], error) {
	return run(ctx, s, OpListByGenre, func(ctx context.Context) (*tmdb.Page[tmdb.Movie], error) {
		return s.api.DiscoverByGenre(ctx, genreID, page)
	}, mergeMovies)
}

// GetDetails fetches a single movie into Movie.
func (s *Store) GetDetails(ctx context.Context, id string) (*tmdb.MovieDetails, error) {
	return run(ctx, s, OpGetDetails, func(ctx context.Context) (*tmdb.MovieDetails, error) {
		return s.api.MovieDetails(ctx, id)
	}, func(st *State, d *tmdb.MovieDetails) {
		st.Movie = cloneDetails(d)
	})
}

// GetCredits fetches a movie's cast and keeps the first MaxCredits entries.
func (s *Store) GetCredits(ctx context.Context, id string) (*tmdb.Credits, error) {
	return run(ctx, s, OpGetCredits, func(ctx context.Context) (*tmdb.Credits, error) {
		return s.api.MovieCredits(ctx, id)
	}, func(st *State, c *tmdb.Credits) {
		st.Credits = TopCast(c)
	})
}

// ListGenres fetches the genre catalog into Genres.
func (s *Store) ListGenres(ctx context.Context) (*tmdb.GenreList, error) {
	return run(ctx, s, OpListGenres, func(ctx context.Context) (*tmdb.GenreList, error) {
		return s.api.Genres(ctx)
	}, func(st *State, g *tmdb.GenreList) {
		st.Genres = slices.Clone(g.Genres)
	})
}

// SearchByTitle runs a title search into Search.
func (s *Store) SearchByTitle(ctx context.Context, query string) (*tmdb.Page[tmdb.Movie], error) {
	return run(ctx, s, OpSearchByTitle, func(ctx context.Context) (*tmdb.Page[tmdb.Movie], error) {
		return s.api.SearchMovies(ctx, query)
	}, func(st *State, p *tmdb.Page[tmdb.Movie]) {
		st.Search = cloneMovies(p.Results)
		st.Page = p.Page
	})
}

// LoadMovie fetches details and credits for one movie concurrently.
// Each half merges on its own; the first error is returned. The returned
// details and top-billed cast are this call's own results, nil for a half
// that failed, so callers never pair one movie with another's cast.
func (s *Store) LoadMovie(ctx context.Context, id string) (*tmdb.MovieDetails, []tmdb.CastMember, error) {
	var (
		g       errgroup.Group
		details *tmdb.MovieDetails
		credits *tmdb.Credits
	)
	g.Go(func() error {
		var err error
		details, err = s.GetDetails(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		credits, err = s.GetCredits(ctx, id)
		return err
	})
	err := g.Wait()
	return details, TopCast(credits), err
}

// LoadHome fetches the genre catalog and a page of the general listing concurrently.
func (s *Store) LoadHome(ctx context.Context, page int) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.ListGenres(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.ListAll(ctx, page)
		return err
	})
	return g.Wait()
}

func mergeMovies(st *State, p *tmdb.Page[tmdb.Movie]) {
	st.Movies = cloneMovies(p.Results)
	st.Page = p.Page
}

// run performs one operation: call the API, then merge on success.
func run[T any](ctx context.Context, s *Store, op Op, call func(context.Context) (*T, error), merge func(*State, *T)) (*T, error) {
	payload, err := call(ctx)
	if err != nil {
		opErr := newOpError(op, err)
		s.logger.Warn("store operation failed",
			slog.String("op", string(op)),
			slog.String("error", err.Error()),
		)
		return nil, opErr
	}
	if payload == nil {
		return nil, newOpError(op, errors.New("empty response"))
	}

	s.mu.Lock()
	merge(&s.state, payload)
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.logger.Debug("store operation applied", slog.String("op", string(op)))
	s.notify(snapshot)
	return payload, nil
}

func (s *Store) notify(snapshot State) {
	s.lmu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(snapshot.clone())
	}
}

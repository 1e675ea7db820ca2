// Package tmdbtest serves a small canned TMDb catalog over HTTP for tests.
package tmdbtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
)

// Catalog IDs.
const (
	DuneID         = 693134
	OppenheimerID  = 872585
	InceptionID    = 27205
	SciFiGenreID   = 878
	DramaGenreID   = 18
	CastSize       = 20
	NotFoundBody   = `{"success":false,"status_code":34,"status_message":"The resource you requested could not be found."}`
	BadKeyBody     = `{"success":false,"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`
	defaultTotal   = 500
	defaultResults = 10000
)

// Movies is the whole catalog, in popularity order.
var Movies = []tmdb.Movie{
	{ID: DuneID, Title: "Dune: Part Two", ReleaseDate: "2024-02-27", VoteAverage: 8.2, VoteCount: 6100, PosterPath: "/dune.jpg", GenreIDs: []int{878, 12}, Overview: "Paul Atreides unites with the Fremen."},
	{ID: OppenheimerID, Title: "Oppenheimer", ReleaseDate: "2023-07-19", VoteAverage: 8.1, VoteCount: 9800, PosterPath: "/oppenheimer.jpg", GenreIDs: []int{18, 36}, Overview: "The story of J. Robert Oppenheimer."},
	{ID: InceptionID, Title: "Inception", ReleaseDate: "2010-07-15", VoteAverage: 8.4, VoteCount: 36000, PosterPath: "/inception.jpg", GenreIDs: []int{28, 878}, Overview: "A thief who steals corporate secrets through dreams."},
}

// Genres is the genre catalog.
var Genres = []tmdb.Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 18, Name: "Drama"},
	{ID: 36, Name: "History"},
	{ID: 878, Name: "Science Fiction"},
}

// Server is a fake TMDb v3 API.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	requests   []string
	failStatus int
	failBody   string
}

// NewServer starts a fake TMDb API. Close it when done.
func NewServer() *Server {
	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /discover/movie", s.discover)
	mux.HandleFunc("GET /movie/now_playing", s.listing(func(m tmdb.Movie) bool { return m.ID == DuneID }))
	mux.HandleFunc("GET /movie/upcoming", s.listing(func(m tmdb.Movie) bool { return m.ID == OppenheimerID }))
	mux.HandleFunc("GET /movie/top_rated", s.listing(func(m tmdb.Movie) bool { return m.ID == InceptionID }))
	mux.HandleFunc("GET /movie/{id}", s.details)
	mux.HandleFunc("GET /movie/{id}/credits", s.credits)
	mux.HandleFunc("GET /genre/movie/list", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, tmdb.GenreList{Genres: Genres})
	})
	mux.HandleFunc("GET /search/movie", s.search)
	s.Server = httptest.NewServer(s.guard(mux))
	return s
}

// Fail makes every following request answer status with body.
func (s *Server) Fail(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
	s.failBody = body
}

// Requests returns the request URIs received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.RequestURI())
		status, body := s.failStatus, s.failBody
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, body)
			return
		}
		if r.URL.Query().Get("api_key") == "" && r.Header.Get("Authorization") == "" {
			writeError(w, http.StatusUnauthorized, BadKeyBody)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) discover(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("with_genres")
	if genre == "" {
		s.listing(nil)(w, r)
		return
	}
	id, _ := strconv.Atoi(genre)
	s.listing(func(m tmdb.Movie) bool { return slices.Contains(m.GenreIDs, id) })(w, r)
}

func (s *Server) listing(keep func(tmdb.Movie) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		results := make([]tmdb.Movie, 0, len(Movies))
		for _, m := range Movies {
			if keep == nil || keep(m) {
				results = append(results, m)
			}
		}
		writeJSON(w, tmdb.Page[tmdb.Movie]{
			Page:         page,
			Results:      results,
			TotalPages:   defaultTotal,
			TotalResults: defaultResults,
		})
	}
}

func (s *Server) details(w http.ResponseWriter, r *http.Request) {
	m, ok := find(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, NotFoundBody)
		return
	}
	details := tmdb.MovieDetails{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		PosterPath:  m.PosterPath,
		VoteAverage: m.VoteAverage,
		VoteCount:   m.VoteCount,
		Runtime:     120 + m.ID%60,
		Status:      "Released",
		Tagline:     "A " + m.Title + " tagline.",
	}
	for _, id := range m.GenreIDs {
		for _, g := range Genres {
			if g.ID == id {
				details.Genres = append(details.Genres, g)
			}
		}
	}
	writeJSON(w, details)
}

func (s *Server) credits(w http.ResponseWriter, r *http.Request) {
	m, ok := find(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, NotFoundBody)
		return
	}
	cast := make([]tmdb.CastMember, 0, CastSize)
	for i := range CastSize {
		cast = append(cast, tmdb.CastMember{
			ID:        m.ID*100 + i,
			Name:      fmt.Sprintf("Actor %d", i+1),
			Character: fmt.Sprintf("%s role %d", m.Title, i+1),
			Order:     i,
		})
	}
	writeJSON(w, tmdb.Credits{ID: m.ID, Cast: cast})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("query"))
	results := make([]tmdb.Movie, 0, len(Movies))
	for _, m := range Movies {
		if q != "" && strings.Contains(strings.ToLower(m.Title), q) {
			results = append(results, m)
		}
	}
	writeJSON(w, tmdb.Page[tmdb.Movie]{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)})
}

func find(rawID string) (tmdb.Movie, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return tmdb.Movie{}, false
	}
	for _, m := range Movies {
		if m.ID == id {
			return m, true
		}
	}
	return tmdb.Movie{}, false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

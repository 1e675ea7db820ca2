package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewForTest(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListEndpoints(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(*Client) (*Page[Movie], error)
	}{
		{"discover", "/discover/movie", func(c *Client) (*Page[Movie], error) {
			return c.DiscoverMovies(context.Background(), 2)
		}},
		{"now playing", "/movie/now_playing", func(c *Client) (*Page[Movie], error) {
			return c.NowPlaying(context.Background(), 2)
		}},
		{"upcoming", "/movie/upcoming", func(c *Client) (*Page[Movie], error) {
			return c.Upcoming(context.Background(), 2)
		}},
		{"top rated", "/movie/top_rated", func(c *Client) (*Page[Movie], error) {
			return c.TopRated(context.Background(), 2)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.path {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if r.URL.Query().Get("page") != "2" {
					t.Errorf("expected page=2, got %q", r.URL.Query().Get("page"))
				}
				if r.URL.Query().Get("api_key") != "test-key" {
					t.Error("missing api_key")
				}
				json.NewEncoder(w).Encode(Page[Movie]{
					Page:       2,
					TotalPages: 500,
					Results:    []Movie{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}},
				})
			}))

			resp, err := tt.call(client)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Page != 2 {
				t.Errorf("expected page 2, got %d", resp.Page)
			}
			if len(resp.Results) != 2 || resp.Results[1].Title != "B" {
				t.Errorf("unexpected results: %+v", resp.Results)
			}
		})
	}
}

func TestListPageClampedToOne(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			t.Errorf("expected page=1, got %q", r.URL.Query().Get("page"))
		}
		json.NewEncoder(w).Encode(Page[Movie]{Page: 1})
	}))

	if _, err := client.DiscoverMovies(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDiscoverByGenre(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("with_genres") != "28" {
			t.Errorf("expected with_genres=28, got %q", r.URL.Query().Get("with_genres"))
		}
		if r.URL.Query().Get("page") != "3" {
			t.Errorf("expected page=3, got %q", r.URL.Query().Get("page"))
		}
		json.NewEncoder(w).Encode(Page[Movie]{Page: 3, Results: []Movie{{ID: 603, Title: "The Matrix"}}})
	}))

	resp, err := client.DiscoverByGenre(context.Background(), "28", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Results[0].ID != 603 {
		t.Errorf("expected ID 603, got %d", resp.Results[0].ID)
	}
}

func TestDiscoverByGenreEmptyID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("with_genres") {
			t.Errorf("with_genres should be omitted, got %q", r.URL.Query().Get("with_genres"))
		}
		json.NewEncoder(w).Encode(Page[Movie]{Page: 1})
	}))

	if _, err := client.DiscoverByGenre(context.Background(), "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchMovies(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "inception" {
			t.Errorf("unexpected query: %s", r.URL.Query().Get("query"))
		}

		resp := Page[Movie]{
			Page: 1,
			Results: []Movie{
				{ID: 27205, Title: "Inception", VoteAverage: 8.4, ReleaseDate: "2010-07-16"},
			},
			TotalResults: 1,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))

	resp, err := client.SearchMovies(context.Background(), "inception")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 movie, got %d", len(resp.Results))
	}
	if resp.Results[0].Title != "Inception" {
		t.Errorf("expected Inception, got %s", resp.Results[0].Title)
	}
}

func TestMovieDetails(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/550" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		details := MovieDetails{
			ID:          550,
			Title:       "Fight Club",
			Overview:    "A ticking-time-bomb insomniac...",
			ReleaseDate: "1999-10-15",
			VoteAverage: 8.4,
			Runtime:     139,
			IMDbID:      "tt0137523",
			Genres:      []Genre{{ID: 18, Name: "Drama"}},
		}
		json.NewEncoder(w).Encode(details)
	}))

	details, err := client.MovieDetails(context.Background(), "550")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Title != "Fight Club" {
		t.Errorf("expected Fight Club, got %s", details.Title)
	}
	if details.Runtime != 139 {
		t.Errorf("expected runtime 139, got %d", details.Runtime)
	}
	if len(details.Genres) != 1 || details.Genres[0].Name != "Drama" {
		t.Errorf("unexpected genres: %+v", details.Genres)
	}
}

func TestMovieCredits(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/550/credits" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":550,"cast":[
			{"id":819,"name":"Edward Norton","character":"The Narrator","order":0},
			{"id":287,"name":"Brad Pitt","character":"Tyler Durden","order":1}
		],"crew":[{"id":7467,"name":"David Fincher","job":"Director"}]}`))
	}))

	credits, err := client.MovieCredits(context.Background(), "550")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(credits.Cast) != 2 {
		t.Fatalf("expected 2 cast members, got %d", len(credits.Cast))
	}
	if credits.Cast[1].Character != "Tyler Durden" {
		t.Errorf("expected Tyler Durden, got %s", credits.Cast[1].Character)
	}
}

func TestGenres(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genre/movie/list" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(GenreList{Genres: []Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}}})
	}))

	list, err := client.Genres(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Genres) != 2 || list.Genres[0].Name != "Action" {
		t.Errorf("unexpected genres: %+v", list.Genres)
	}
}

func TestAccessTokenAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer v4-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if r.URL.Query().Has("api_key") {
			t.Error("api_key should not be sent with an access token")
		}
		if r.URL.Query().Get("language") != "de-DE" {
			t.Errorf("expected language=de-DE, got %q", r.URL.Query().Get("language"))
		}
		json.NewEncoder(w).Encode(GenreList{})
	}))
	t.Cleanup(server.Close)

	client := New(Options{
		BaseURL:     server.URL + "/",
		AccessToken: "v4-token",
		Language:    "de-DE",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := client.Genres(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key"}`))
	}))

	_, err := client.SearchMovies(context.Background(), "test")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", apiErr.StatusCode)
	}
	if string(apiErr.Body) != `{"status_code":7,"status_message":"Invalid API key"}` {
		t.Errorf("body not kept verbatim: %s", apiErr.Body)
	}
	if apiErr.StatusMessage() != "Invalid API key" {
		t.Errorf("unexpected status message: %q", apiErr.StatusMessage())
	}
	if !apiErr.IsUnauthorized() {
		t.Error("expected IsUnauthorized")
	}
}

func TestMalformedResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"page": "one"`))
	}))

	_, err := client.TopRated(context.Background(), 1)
	if err == nil {
		t.Fatal("expected decode error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("decode failure should not be an APIError")
	}
}

func TestAPIErrorStatusMessage(t *testing.T) {
	tests := []struct {
		name string
		err  APIError
		want string
	}{
		{"status_message", APIError{StatusCode: 404, Body: []byte(`{"status_message":"not found here"}`)}, "not found here"},
		{"message", APIError{StatusCode: 429, Body: []byte(`{"message":"rate limited"}`)}, "rate limited"},
		{"not json", APIError{StatusCode: 502, Body: []byte(`<html>bad gateway</html>`)}, "Bad Gateway"},
		{"empty object", APIError{StatusCode: 500, Body: []byte(`{}`)}, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.StatusMessage(); got != tt.want {
				t.Errorf("StatusMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPosterURL(t *testing.T) {
	tests := []struct {
		path   string
		size   string
		expect string
	}{
		{"/abc123.jpg", "w500", "https://image.tmdb.org/t/p/w500/abc123.jpg"},
		{"", "w500", ""},
		{"/poster.jpg", "original", "https://image.tmdb.org/t/p/original/poster.jpg"},
	}
	for _, tt := range tests {
		got := PosterURL(tt.path, tt.size)
		if got != tt.expect {
			t.Errorf("PosterURL(%q, %q) = %q, want %q", tt.path, tt.size, got, tt.expect)
		}
	}
}

package telegram

import (
	"strings"
	"testing"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
)

func TestEscapeMdV2(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "hello world", want: "hello world"},
		{name: "dots", in: "hello.", want: "hello\\."},
		{name: "exclamation", in: "Done!", want: "Done\\!"},
		{name: "parentheses", in: "(2024)", want: "\\(2024\\)"},
		{name: "brackets", in: "[link]", want: "\\[link\\]"},
		{name: "underscores", in: "foo_bar", want: "foo\\_bar"},
		{name: "stars", in: "*bold*", want: "\\*bold\\*"},
		{name: "mixed", in: "Dune (2021) - 8.0*", want: "Dune \\(2021\\) \\- 8\\.0\\*"},
		{name: "all specials", in: "_*[]()~`>#+-=|{}.!", want: "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeMdV2(tt.in)
			if got != tt.want {
				t.Errorf("EscapeMdV2(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatBold(t *testing.T) {
	got := FormatBold("Dune (2021)")
	want := "*Dune \\(2021\\)*"
	if got != want {
		t.Errorf("FormatBold(%q) = %q, want %q", "Dune (2021)", got, want)
	}
}

func TestFormatItalic(t *testing.T) {
	got := FormatItalic("description")
	want := "_description_"
	if got != want {
		t.Errorf("FormatItalic(%q) = %q, want %q", "description", got, want)
	}
}

func TestRatingStars(t *testing.T) {
	tests := []struct {
		vote float64
		want string
	}{
		{0, "☆☆☆☆☆"},
		{4.9, "★★☆☆☆"},
		{5, "★★★☆☆"},
		{8.4, "★★★★☆"},
		{10, "★★★★★"},
		{12, "★★★★★"},
		{-1, "☆☆☆☆☆"},
	}
	for _, tt := range tests {
		if got := RatingStars(tt.vote); got != tt.want {
			t.Errorf("RatingStars(%v) = %q, want %q", tt.vote, got, tt.want)
		}
	}
}

func TestYear(t *testing.T) {
	if got := Year("2024-02-27"); got != "2024" {
		t.Errorf("Year = %q, want 2024", got)
	}
	if got := Year(""); got != "" {
		t.Errorf("Year(empty) = %q, want empty", got)
	}
}

func TestFormatMovieList(t *testing.T) {
	movies := []tmdb.Movie{
		{ID: 1, Title: "Dune: Part Two", ReleaseDate: "2024-02-27", VoteAverage: 8.2},
		{ID: 2, Title: "Untitled"},
	}
	got := FormatMovieList("Popular movies", movies, 2)

	for _, want := range []string{
		"*Popular movies* _page 2_",
		"1\\. *Dune: Part Two \\(2024\\)*  ★★★★☆ 8\\.2",
		"2\\. *Untitled*  ☆☆☆☆☆ 0\\.0",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("list missing %q:\n%s", want, got)
		}
	}

	empty := FormatMovieList("Results", nil, 0)
	if strings.Contains(empty, "page") || !strings.Contains(empty, "No movies found\\.") {
		t.Errorf("unexpected empty list: %q", empty)
	}
}

func TestFormatMovieCard(t *testing.T) {
	m := &tmdb.MovieDetails{
		Title:       "Inception",
		ReleaseDate: "2010-07-15",
		Tagline:     "Your mind is the scene of the crime.",
		VoteAverage: 8.4,
		Runtime:     148,
		Genres:      []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}},
		Overview:    "A thief.",
	}
	cast := []tmdb.CastMember{
		{Name: "Leonardo DiCaprio", Character: "Cobb"},
		{Name: "Uncredited"},
	}
	got := FormatMovieCard(m, cast)

	for _, want := range []string{
		"*Inception \\(2010\\)*",
		"_Your mind is the scene of the crime\\._",
		"148 min",
		"Action, Science Fiction",
		"A thief\\.",
		"*Cast*",
		"Leonardo DiCaprio as _Cobb_",
		"Uncredited\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("card missing %q:\n%s", want, got)
		}
	}

	bare := FormatMovieCard(&tmdb.MovieDetails{Title: "X"}, nil)
	if strings.Contains(bare, "Cast") || strings.Contains(bare, "min") {
		t.Errorf("unexpected sections in bare card: %q", bare)
	}
}

func TestFormatGenres(t *testing.T) {
	got := FormatGenres([]tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 10770, Name: "TV Movie"}})
	for _, want := range []string{"*Genres*", "`28` Action", "`10770` TV Movie", "/genre <id>"} {
		if !strings.Contains(got, want) {
			t.Errorf("genres missing %q:\n%s", want, got)
		}
	}
}

func TestTruncateLabel(t *testing.T) {
	if got := truncateLabel("short", 30); got != "short" {
		t.Errorf("got %q", got)
	}
	got := truncateLabel("Амели с Монмартра и другие", 5)
	if got != "Амели…" {
		t.Errorf("truncateLabel should cut on runes, got %q", got)
	}
}

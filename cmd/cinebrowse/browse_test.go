package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb/tmdbtest"
	"github.com/vadimtrunov/cinebrowse/internal/store"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestStore(t *testing.T) (*store.Store, *tmdbtest.Server) {
	t.Helper()
	api := tmdbtest.NewServer()
	t.Cleanup(api.Close)
	return store.New(tmdb.NewForTest(api.URL, discardLogger), discardLogger), api
}

// settle runs cmd and feeds every store result back into the model.
// Spinner ticks and other messages are dropped.
func settle(t *testing.T, m browseModel, cmd tea.Cmd) browseModel {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = settle(t, m, c)
		}
	case resultMsg:
		next, follow := m.Update(msg)
		m = settle(t, next.(browseModel), follow)
	}
	return m
}

func press(t *testing.T, m browseModel, key tea.KeyMsg) browseModel {
	t.Helper()
	next, cmd := m.Update(key)
	return settle(t, next.(browseModel), cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func startedModel(t *testing.T) (browseModel, *tmdbtest.Server) {
	t.Helper()
	st, api := newTestStore(t)
	m := newBrowseModel(context.Background(), st)
	return settle(t, m, m.Init()), api
}

func TestBrowse_InitLoadsHome(t *testing.T) {
	m, _ := startedModel(t)

	if m.loading {
		t.Error("still loading after init")
	}
	if m.err != nil {
		t.Fatalf("err = %v", m.err)
	}
	if len(m.state.Movies) != len(tmdbtest.Movies) {
		t.Errorf("movies = %d, want %d", len(m.state.Movies), len(tmdbtest.Movies))
	}
	if len(m.state.Genres) != len(tmdbtest.Genres) {
		t.Errorf("genres = %d, want %d", len(m.state.Genres), len(tmdbtest.Genres))
	}

	view := m.View()
	for _, want := range []string{"Popular", "page 1 of 500", "Dune: Part Two", "Science Fiction"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestBrowse_SwitchCategory(t *testing.T) {
	m, _ := startedModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := store.Categories[m.category]; got != store.CategoryNowPlaying {
		t.Fatalf("category = %s, want %s", got, store.CategoryNowPlaying)
	}
	if len(m.state.Movies) != 1 || m.state.Movies[0].ID != tmdbtest.DuneID {
		t.Errorf("now playing = %+v", m.state.Movies)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := store.Categories[m.category]; got != store.CategoryTopRated {
		t.Fatalf("category = %s, want %s (wrap around)", got, store.CategoryTopRated)
	}
	if len(m.state.Movies) != 1 || m.state.Movies[0].ID != tmdbtest.InceptionID {
		t.Errorf("top rated = %+v", m.state.Movies)
	}
}

func TestBrowse_Paging(t *testing.T) {
	m, api := startedModel(t)

	m = press(t, m, runes("p"))
	if m.page != 1 {
		t.Errorf("page = %d, want 1 (no page before the first)", m.page)
	}

	m = press(t, m, runes("n"))
	if m.page != 2 {
		t.Fatalf("page = %d, want 2", m.page)
	}
	reqs := api.Requests()
	if last := reqs[len(reqs)-1]; !strings.Contains(last, "page=2") {
		t.Errorf("last request = %q, want page=2", last)
	}

	m = press(t, m, runes("p"))
	if m.page != 1 {
		t.Errorf("page = %d, want 1", m.page)
	}
}

func TestBrowse_OpenMovie(t *testing.T) {
	m, _ := startedModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.view != viewDetail {
		t.Fatal("enter did not open the detail view")
	}
	if m.movieID != tmdbtest.OppenheimerID {
		t.Errorf("movieID = %d, want %d", m.movieID, tmdbtest.OppenheimerID)
	}
	view := m.View()
	for _, want := range []string{"Oppenheimer (2023)", "A Oppenheimer tagline.", "Actor 14"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q", want)
		}
	}
	if strings.Contains(view, "Actor 15") {
		t.Error("detail view shows more than the truncated cast")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.view != viewList {
		t.Error("esc did not return to the list")
	}
}

func TestBrowse_Search(t *testing.T) {
	m, _ := startedModel(t)

	next, _ := m.Update(runes("/"))
	m = next.(browseModel)
	if !m.typing {
		t.Fatal("/ did not start search input")
	}
	next, _ = m.Update(runes("incep"))
	m = next.(browseModel)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != modeSearch {
		t.Fatal("not in search mode")
	}
	if len(m.state.Search) != 1 || m.state.Search[0].ID != tmdbtest.InceptionID {
		t.Errorf("search = %+v", m.state.Search)
	}
	if view := m.View(); !strings.Contains(view, `Results for "incep"`) || !strings.Contains(view, "Inception") {
		t.Errorf("view = %s", view)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeCategory {
		t.Error("esc did not leave search results")
	}
}

func TestBrowse_FailedListingKeepsPosition(t *testing.T) {
	m, api := startedModel(t)
	api.Fail(http.StatusTooManyRequests, `{"status_code":25,"status_message":"rate limited"}`)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.err == nil {
		t.Fatal("expected an error")
	}
	if m.category != 0 {
		t.Errorf("category = %d, want 0 after failure", m.category)
	}
	if len(m.state.Movies) != len(tmdbtest.Movies) {
		t.Errorf("movies = %d, want previous listing kept", len(m.state.Movies))
	}
	if view := m.View(); !strings.Contains(view, "rate limited (HTTP 429)") {
		t.Errorf("view missing error:\n%s", view)
	}
}

func TestBrowse_IgnoresNavigationWhileLoading(t *testing.T) {
	st, _ := newTestStore(t)
	m := newBrowseModel(context.Background(), st)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if cmd != nil {
		t.Error("navigation while loading should be ignored")
	}
}

func TestBrowse_Quit(t *testing.T) {
	st, _ := newTestStore(t)
	m := newBrowseModel(context.Background(), st)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestBrowse_StateMsgReadsLatestState(t *testing.T) {
	m, _ := startedModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})

	// A merge made outside the model, whose notification may arrive late.
	if _, err := m.store.ListTopRated(context.Background(), 1); err != nil {
		t.Fatalf("top rated: %v", err)
	}

	next, _ := m.Update(stateMsg{})
	m = next.(browseModel)
	if len(m.state.Movies) != 1 || m.state.Movies[0].ID != tmdbtest.InceptionID {
		t.Errorf("movies = %+v, want the store's current listing", m.state.Movies)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want clamped to 0", m.cursor)
	}
}

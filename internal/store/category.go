package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
)

// Category names one of the general movie listings.
type Category string

// Listing categories, in display order.
const (
	CategoryPopular    Category = "popular"
	CategoryNowPlaying Category = "now-playing"
	CategoryUpcoming   Category = "upcoming"
	CategoryTopRated   Category = "top-rated"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryPopular, CategoryNowPlaying, CategoryUpcoming, CategoryTopRated}

// Title is the human label for c.
func (c Category) Title() string {
	switch c {
	case CategoryPopular:
		return "Popular"
	case CategoryNowPlaying:
		return "Now Playing"
	case CategoryUpcoming:
		return "Upcoming"
	case CategoryTopRated:
		return "Top Rated"
	default:
		return string(c)
	}
}

// ParseCategory accepts a category name; underscores and case are ignored.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (want one of popular, now-playing, upcoming, top-rated)", s)
}

// ListCategory runs the listing operation for c.
func (s *Store) ListCategory(ctx context.Context, c Category, page int) (*tmdb.Page[tmdb.Movie], error) {
	switch c {
	case CategoryPopular:
		return s.ListAll(ctx, page)
	case CategoryNowPlaying:
		return s.ListNowPlaying(ctx, page)
	case CategoryUpcoming:
		return s.ListUpcoming(ctx, page)
	case CategoryTopRated:
		return s.ListTopRated(ctx, page)
	default:
		return nil, fmt.Errorf("unknown category %q", c)
	}
}

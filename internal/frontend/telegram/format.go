package telegram

import (
	"fmt"
	"math"
	"strings"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// RatingStars renders a 0-10 vote average as five stars.
func RatingStars(vote float64) string {
	filled := int(math.Round(vote / 2))
	filled = max(0, min(filled, 5))
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

// Year returns the year of a TMDb release date, or "" when unknown.
func Year(releaseDate string) string {
	if len(releaseDate) < 4 {
		return ""
	}
	return releaseDate[:4]
}

// movieLabel is "Title (year)", or just the title when the year is unknown.
func movieLabel(title, releaseDate string) string {
	if y := Year(releaseDate); y != "" {
		return fmt.Sprintf("%s (%s)", title, y)
	}
	return title
}

func rating(vote float64) string {
	return EscapeMdV2(fmt.Sprintf("%s %.1f", RatingStars(vote), vote))
}

// FormatMovieList renders a numbered page of movies. page <= 0 omits the page marker.
func FormatMovieList(title string, movies []tmdb.Movie, page int) string {
	var sb strings.Builder
	sb.WriteString(FormatBold(title))
	if page > 0 {
		sb.WriteString(" " + FormatItalic(fmt.Sprintf("page %d", page)))
	}
	sb.WriteString("\n\n")

	if len(movies) == 0 {
		sb.WriteString(EscapeMdV2("No movies found."))
		return sb.String()
	}
	for i, m := range movies {
		fmt.Fprintf(&sb, "%s %s  %s\n",
			EscapeMdV2(fmt.Sprintf("%d.", i+1)),
			FormatBold(movieLabel(m.Title, m.ReleaseDate)),
			rating(m.VoteAverage),
		)
	}
	return sb.String()
}

// FormatMovieCard renders a movie's details followed by its cast.
func FormatMovieCard(m *tmdb.MovieDetails, cast []tmdb.CastMember) string {
	var sb strings.Builder
	sb.WriteString(FormatBold(movieLabel(m.Title, m.ReleaseDate)))
	sb.WriteString("\n")
	if m.Tagline != "" {
		sb.WriteString(FormatItalic(m.Tagline) + "\n")
	}

	facts := []string{rating(m.VoteAverage)}
	if m.Runtime > 0 {
		facts = append(facts, EscapeMdV2(fmt.Sprintf("%d min", m.Runtime)))
	}
	if len(m.Genres) > 0 {
		names := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			names = append(names, g.Name)
		}
		facts = append(facts, EscapeMdV2(strings.Join(names, ", ")))
	}
	sb.WriteString(strings.Join(facts, " · "))
	sb.WriteString("\n")

	if m.Overview != "" {
		sb.WriteString("\n" + EscapeMdV2(m.Overview) + "\n")
	}

	if len(cast) > 0 {
		sb.WriteString("\n" + FormatBold("Cast") + "\n")
		for _, c := range cast {
			if c.Character != "" {
				fmt.Fprintf(&sb, "%s as %s\n", EscapeMdV2(c.Name), FormatItalic(c.Character))
			} else {
				sb.WriteString(EscapeMdV2(c.Name) + "\n")
			}
		}
	}
	return sb.String()
}

// FormatGenres renders the genre catalog with the IDs /genre accepts.
func FormatGenres(genres []tmdb.Genre) string {
	var sb strings.Builder
	sb.WriteString(FormatBold("Genres") + "\n\n")
	for _, g := range genres {
		fmt.Fprintf(&sb, "`%d` %s\n", g.ID, EscapeMdV2(g.Name))
	}
	sb.WriteString("\n" + EscapeMdV2("Use /genre <id> to browse a genre."))
	return sb.String()
}

// truncateLabel shortens s to limit runes, marking the cut with an ellipsis.
func truncateLabel(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}

package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
	"github.com/vadimtrunov/cinebrowse/internal/store"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	resetMsg        = "Session reset. Send a command or a title to start over."
	unknownMsg      = "Unknown command. Send /start to see what I can do."

	welcomeMsg = "Browse movies from TMDb.\n\n" +
		"/popular [page] - popular movies\n" +
		"/now [page] - now in theatres\n" +
		"/upcoming [page] - coming soon\n" +
		"/top [page] - top rated\n" +
		"/genres - list genres\n" +
		"/genre <id> [page] - movies in a genre\n" +
		"/movie <id> - details and cast\n" +
		"/search <title> - search by title\n" +
		"/reset - start over\n\n" +
		"Or just send a title to search."

	movieCallback = "mv:" // mv:<tmdb id> opens a movie card
	pageCallback  = "pg:" // pg:<source>:<page> turns a listing page
	genreSource   = "genre-"

	maxButtons     = 10 // movie buttons under a listing
	maxButtonLabel = 30 // max characters in inline keyboard button label
	posterSize     = "w500"
)

// commandCategories maps bot commands to listing categories.
var commandCategories = map[string]store.Category{
	"popular":  store.CategoryPopular,
	"now":      store.CategoryNowPlaying,
	"upcoming": store.CategoryUpcoming,
	"top":      store.CategoryTopRated,
}

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("received message",
		slog.Int64("user_id", userID),
	)

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, userID, msg.Command(), strings.Fields(msg.CommandArguments()))
		return
	}

	b.search(ctx, chatID, b.sessions.getOrCreate(userID, b.newStore), text)
}

// handleCommand runs one slash command.
func (b *Bot) handleCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	switch cmd {
	case "start", "help":
		b.sendText(chatID, welcomeMsg)
		return
	case "reset":
		b.sessions.reset(userID)
		b.sendText(chatID, resetMsg)
		return
	}

	st := b.sessions.getOrCreate(userID, b.newStore)

	switch cmd {
	case "genres":
		b.showGenres(ctx, chatID, st)
	case "genre":
		if len(args) == 0 {
			b.sendText(chatID, "Usage: /genre <id> [page]. Send /genres for the list of IDs.")
			return
		}
		page, err := parsePage(args[1:])
		if err != nil {
			b.sendText(chatID, err.Error())
			return
		}
		b.showListing(ctx, chatID, st, genreSource+args[0], page)
	case "movie":
		if len(args) != 1 {
			b.sendText(chatID, "Usage: /movie <id>")
			return
		}
		b.showMovie(ctx, chatID, st, args[0])
	case "search":
		query := strings.Join(args, " ")
		if query == "" {
			b.sendText(chatID, "Usage: /search <title>")
			return
		}
		b.search(ctx, chatID, st, query)
	default:
		category, ok := commandCategories[cmd]
		if !ok {
			b.sendText(chatID, unknownMsg)
			return
		}
		page, err := parsePage(args)
		if err != nil {
			b.sendText(chatID, err.Error())
			return
		}
		b.showListing(ctx, chatID, st, string(category), page)
	}
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	b.logger.Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	// Acknowledge the callback immediately.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Debug("callback ack failed", slog.String("error", err.Error()))
	}

	if !b.sessions.isAllowed(userID) {
		return
	}
	st := b.sessions.getOrCreate(userID, b.newStore)

	switch {
	case strings.HasPrefix(cq.Data, movieCallback):
		b.showMovie(ctx, chatID, st, strings.TrimPrefix(cq.Data, movieCallback))
	case strings.HasPrefix(cq.Data, pageCallback):
		source, page, ok := parsePageCallback(cq.Data)
		if !ok {
			return
		}
		b.showListing(ctx, chatID, st, source, page)
	}
}

// showListing fetches one page of a listing source and sends it with buttons.
// A source is a category name or genreSource followed by a genre ID.
func (b *Bot) showListing(ctx context.Context, chatID int64, st *store.Store, source string, page int) {
	title, list, err := resolveSource(st, source)
	if err != nil {
		b.sendText(chatID, err.Error())
		return
	}

	b.typing(chatID)
	result, err := list(ctx, page)
	if err != nil {
		b.sendFailure(chatID, err)
		return
	}
	b.sendMarkdown(chatID, FormatMovieList(title, result.Results, result.Page), listingKeyboard(source, result))
}

type listFunc func(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error)

func resolveSource(st *store.Store, source string) (string, listFunc, error) {
	if id, ok := strings.CutPrefix(source, genreSource); ok {
		list := func(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error) {
			return st.ListByGenre(ctx, page, id)
		}
		return genreTitle(st.State().Genres, id), list, nil
	}

	category, err := store.ParseCategory(source)
	if err != nil {
		return "", nil, err
	}
	list := func(ctx context.Context, page int) (*tmdb.Page[tmdb.Movie], error) {
		return st.ListCategory(ctx, category, page)
	}
	return category.Title() + " movies", list, nil
}

// genreTitle names a genre from the catalog the session has already loaded.
func genreTitle(genres []tmdb.Genre, id string) string {
	for _, g := range genres {
		if strconv.Itoa(g.ID) == id {
			return g.Name + " movies"
		}
	}
	return "Genre " + id
}

// showMovie sends a movie's poster and card with its top-billed cast.
// It renders this lookup's own results, never the session state, since
// another update for the same session may be loading a different movie.
func (b *Bot) showMovie(ctx context.Context, chatID int64, st *store.Store, id string) {
	b.typing(chatID)
	movie, cast, err := st.LoadMovie(ctx, id)
	if movie == nil {
		b.sendFailure(chatID, err)
		return
	}
	if err != nil {
		b.logger.Warn("movie loaded without credits",
			slog.String("movie_id", id),
			slog.String("error", err.Error()),
		)
	}

	b.sendPoster(chatID, movie.PosterPath)
	b.sendMarkdown(chatID, FormatMovieCard(movie, cast), nil)
}

func (b *Bot) search(ctx context.Context, chatID int64, st *store.Store, query string) {
	b.typing(chatID)
	result, err := st.SearchByTitle(ctx, query)
	if err != nil {
		b.sendFailure(chatID, err)
		return
	}
	title := fmt.Sprintf("Results for “%s”", query)
	b.sendMarkdown(chatID, FormatMovieList(title, result.Results, 0), listingKeyboard("", result))
}

func (b *Bot) showGenres(ctx context.Context, chatID int64, st *store.Store) {
	b.typing(chatID)
	list, err := st.ListGenres(ctx)
	if err != nil {
		b.sendFailure(chatID, err)
		return
	}
	b.sendMarkdown(chatID, FormatGenres(list.Genres), nil)
}

// listingKeyboard builds one button per movie plus prev/next buttons.
// An empty source means the listing cannot be paged.
func listingKeyboard(source string, p *tmdb.Page[tmdb.Movie]) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, m := range p.Results {
		if i == maxButtons {
			break
		}
		label := truncateLabel(fmt.Sprintf("%d. %s", i+1, movieLabel(m.Title, m.ReleaseDate)), maxButtonLabel)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, movieCallback+strconv.Itoa(m.ID)),
		))
	}

	if source != "" {
		var nav []tgbotapi.InlineKeyboardButton
		if p.Page > 1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀ Prev", pageData(source, p.Page-1)))
		}
		if p.Page < p.TotalPages {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶", pageData(source, p.Page+1)))
		}
		if len(nav) > 0 {
			rows = append(rows, nav)
		}
	}

	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func pageData(source string, page int) string {
	return fmt.Sprintf("%s%s:%d", pageCallback, source, page)
}

func parsePageCallback(data string) (source string, page int, ok bool) {
	rest := strings.TrimPrefix(data, pageCallback)
	i := strings.LastIndex(rest, ":")
	if i <= 0 {
		return "", 0, false
	}
	page, err := strconv.Atoi(rest[i+1:])
	if err != nil || page < 1 {
		return "", 0, false
	}
	return rest[:i], page, true
}

// parsePage reads an optional page argument.
func parsePage(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	page, err := strconv.Atoi(args[0])
	if err != nil || page < 1 {
		return 0, fmt.Errorf("page must be a positive number, got %q", args[0])
	}
	return page, nil
}

// sendFailure reports a failed store operation to the user.
func (b *Bot) sendFailure(chatID int64, err error) {
	if err == nil {
		err = errors.New("no result")
	}
	b.logger.Warn("request failed",
		slog.Int64("chat_id", chatID),
		slog.String("error", err.Error()),
	)
	b.sendText(chatID, "Request failed: "+store.Describe(err))
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("typing indicator failed", slog.String("error", err.Error()))
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// sendMarkdown sends pre-escaped MarkdownV2 text with an optional keyboard.
func (b *Bot) sendMarkdown(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// sendPoster sends a movie poster photo; a missing poster sends nothing.
func (b *Bot) sendPoster(chatID int64, posterPath string) {
	url := tmdb.PosterURL(posterPath, posterSize)
	if url == "" {
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Debug("failed to send poster",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
	}
}

package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/cinebrowse/internal/config"
	"github.com/vadimtrunov/cinebrowse/internal/frontend/telegram"
	"github.com/vadimtrunov/cinebrowse/internal/store"
)

// newBotCmd returns the "bot" subcommand for running the Telegram bot.
func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram bot",
		Long:  "Start the Cinebrowse Telegram bot. Every chat user gets their own browsing session.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Telegram == nil {
				return errors.New(
					"telegram configuration is required: set telegram.bot_token in config or CINEBROWSE_TELEGRAM_BOT_TOKEN env var",
				)
			}

			logger := config.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
			bot, err := initTelegramBot(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			logger.Info("telegram bot starting",
				slog.Int("allowed_users", len(cfg.Telegram.AllowedUserIDs)),
			)
			return bot.Start(ctx)
		},
	}
}

// initTelegramBot creates the bot. All sessions share one TMDb client.
func initTelegramBot(cfg *config.Config, logger *slog.Logger) (*telegram.Bot, error) {
	client := newTMDbClient(cfg, logger)
	factory := func() *store.Store {
		return store.New(client, logger)
	}

	return telegram.New(
		cfg.Telegram.BotToken,
		cfg.Telegram.AllowedUserIDs,
		factory,
		logger,
	)
}

// Package main is the entry point for sfctl, the SocialFlow operator CLI.
// It computes webhook CRC responses, manages the Telegram bot and inspects
// archived and recorded webhook events.
package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/DukeRupert/socialflow/internal"
	"github.com/DukeRupert/socialflow/internal/storage"
	"github.com/DukeRupert/socialflow/internal/store"
	"github.com/DukeRupert/socialflow/internal/telegram"
	"github.com/DukeRupert/socialflow/internal/twitter"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sfctl",
		Short:         "Operator tools for SocialFlow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newCRCCmd(), newTelegramCmd(), newArchiveCmd(), newEventsCmd())
	return rootCmd
}

func newCRCCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "crc <crc_token>",
		Short: "Print the response_token X expects for a CRC challenge",
		Long: `Computes sha256=base64(HMAC-SHA256(secret, crc_token)), the value the
webhook returns for GET /webhooks/twitter?crc_token=<token>.

The secret defaults to TWITTER_CONSUMER_SECRET.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("TWITTER_CONSUMER_SECRET")
			}
			token, err := twitter.ResponseToken(secret, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), twitter.CRCResponse{ResponseToken: token})
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Consumer secret (default $TWITTER_CONSUMER_SECRET)")
	return cmd
}

func newTelegramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Manage the Telegram bot configured by TELEGRAM_BOT_TOKEN",
	}

	me := &cobra.Command{
		Use:   "me",
		Short: "Show the bot identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := telegramClient()
			if err != nil {
				return err
			}
			user, err := client.GetMe(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}

	var chatID string
	send := &cobra.Command{
		Use:   "send <text>",
		Short: "Send a message to a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := telegramClient()
			if err != nil {
				return err
			}
			if chatID == "" {
				chatID = os.Getenv("TELEGRAM_CHAT_ID")
			}
			msg, err := client.SendMessage(cmd.Context(), telegram.SendMessageParams{
				ChatID: telegram.ChatID(chatID),
				Text:   args[0],
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), msg)
		},
	}
	send.Flags().StringVar(&chatID, "chat", "", "Chat id or @channel (default $TELEGRAM_CHAT_ID)")

	var secretToken string
	setWebhook := &cobra.Command{
		Use:   "set-webhook <url>",
		Short: "Point the bot at an HTTPS webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := telegramClient()
			if err != nil {
				return err
			}
			if err := client.SetWebhook(cmd.Context(), telegram.SetWebhookParams{
				URL:         args[0],
				SecretToken: secretToken,
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "webhook set")
			return nil
		},
	}
	setWebhook.Flags().StringVar(&secretToken, "secret-token", "", "Value Telegram sends in X-Telegram-Bot-Api-Secret-Token")

	var dropPending bool
	deleteWebhook := &cobra.Command{
		Use:   "delete-webhook",
		Short: "Remove the webhook so the bot can be polled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := telegramClient()
			if err != nil {
				return err
			}
			if err := client.DeleteWebhook(cmd.Context(), dropPending); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "webhook deleted")
			return nil
		},
	}
	deleteWebhook.Flags().BoolVar(&dropPending, "drop-pending", false, "Discard updates queued while the webhook was set")

	webhookInfo := &cobra.Command{
		Use:   "webhook-info",
		Short: "Show the current webhook status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := telegramClient()
			if err != nil {
				return err
			}
			info, err := client.GetWebhookInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}

	cmd.AddCommand(me, send, setWebhook, deleteWebhook, webhookInfo)
	return cmd
}

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect archived webhook payloads in ARCHIVE_PROVIDER storage",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Write an archived payload to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := archiveStorage()
			if err != nil {
				return err
			}
			rc, _, err := archive.Get(cmd.Context(), args[0])
			if storage.IsNotFound(err) {
				return fmt.Errorf("no archived payload at %s", args[0])
			}
			if err != nil {
				return err
			}
			defer rc.Close()
			_, err = io.Copy(cmd.OutOrStdout(), rc)
			return err
		},
	}

	exists := &cobra.Command{
		Use:   "exists <key>",
		Short: "Report whether a payload is archived at key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := archiveStorage()
			if err != nil {
				return err
			}
			ok, err := archive.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <key>",
		Short: "Delete an archived payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := archiveStorage()
			if err != nil {
				return err
			}
			if err := archive.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}

	cmd.AddCommand(get, exists, rm)
	return cmd
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query webhook events recorded in DATABASE_URL",
	}

	count := &cobra.Command{
		Use:   "count",
		Short: "Print the number of recorded events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := store.New(db).CountEvents(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	var limit int32
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Print the most recent events as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			items, err := store.New(db).ListRecentEvents(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
	recent.Flags().Int32Var(&limit, "limit", 10, "Maximum number of events")

	cmd.AddCommand(count, recent)
	return cmd
}

// archiveStorage opens the archive backend the server writes to.
func archiveStorage() (storage.Storage, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}
	archive, err := storage.New(storage.Config{
		Provider: cfg.ArchiveProvider,
		Local:    storage.LocalConfig{BasePath: cfg.ArchiveLocalPath},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		},
	}, internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	if archive == nil {
		return nil, errors.New("archive storage is disabled; set ARCHIVE_PROVIDER")
	}
	return archive, nil
}

func openDB() (*sql.DB, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}
	if cfg.DatabaseUrl == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// telegramClient builds a client from the same environment the server reads.
func telegramClient() (*telegram.Client, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)
	return telegram.New(telegram.Config{
		Token:   cfg.TelegramBotToken,
		BaseURL: cfg.TelegramAPIURL,
		Timeout: cfg.TelegramHTTPTimeout,
	}, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

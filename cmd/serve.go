package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/example/wordmastery/internal/ai"
	"github.com/example/wordmastery/internal/bot"
	"github.com/example/wordmastery/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the background refresh job",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, svc, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		var examples bot.ExampleGenerator
		gpt, err := ai.New(cfg, log)
		switch {
		case errors.Is(err, ai.ErrDisabled):
			log.Info("Example sentences disabled, OPENAI_API_KEY is not set")
		case err != nil:
			return err
		default:
			examples = gpt
		}

		b, err := bot.New(cfg.TelegramToken, svc, examples, log)
		if err != nil {
			return err
		}

		sched := scheduler.New(cfg, store, svc, b, log)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
		b.SetChecker(sched)

		log.Info("Starting bot", "db", cfg.DBType, "refresh_interval", cfg.RefreshInterval)
		if err := b.Start(ctx); err != nil {
			return err
		}
		log.Info("Shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

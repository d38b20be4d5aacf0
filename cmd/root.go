package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/wordmastery/internal/config"
	"github.com/example/wordmastery/internal/database"
	"github.com/example/wordmastery/internal/logger"
	"github.com/example/wordmastery/internal/practice"
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Adaptive vocabulary trainer",
	Long: `Vocab tracks how well each learner knows each word, schedules
reviews with a bounded SM-2 algorithm and keeps smart word lists fresh.
It runs as a Telegram bot or from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		l, err := logger.New(cfg.Mode)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openService connects to the configured database and builds the practice service on it
func openService() (*database.Store, *practice.Service, error) {
	db, err := database.Connect(cfg.DBType, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	store := database.NewStore(db)
	return store, practice.NewService(store, log), nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/wordmastery/internal/scheduler"
)

var refreshLearner int64

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute smart word lists once",
	Long: `Refresh recomputes the smart word lists of one learner, or of every
learner when --learner is not given, without sending reminders.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, svc, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		if refreshLearner == 0 {
			if err := scheduler.New(cfg, store, svc, nil, log).RunOnce(ctx); err != nil {
				return err
			}
			fmt.Println("🔄 Refreshed all learners")
			return nil
		}

		defs, err := svc.RefreshSmartResources(ctx, refreshLearner)
		if err != nil {
			return err
		}
		for _, d := range defs {
			fmt.Printf("%-14s %d words\n", d.Kind.Title(), len(d.Members))
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().Int64Var(&refreshLearner, "learner", 0, "learner (Telegram user) id")
	rootCmd.AddCommand(refreshCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/example/wordmastery/internal/database"
)

var (
	historyLearner int64
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a learner's latest answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		learner, err := store.GetLearner(ctx, historyLearner)
		if errors.Is(err, database.ErrNotFound) {
			return errors.Errorf("learner %d is not registered", historyLearner)
		}
		if err != nil {
			return err
		}

		attempts, err := store.RecentAttempts(ctx, learner.ID, historyLimit)
		if err != nil {
			return err
		}
		name := learner.Username
		if name == "" {
			name = fmt.Sprint(learner.ID)
		}
		if len(attempts) == 0 {
			fmt.Printf("No answers from %s yet.\n", name)
			return nil
		}

		fmt.Printf("🕑 Latest %d answers from %s:\n\n", len(attempts), name)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Time\tItem\tMode\tAnswer\tExpected\tResult\tLatency")
		fmt.Fprintln(w, "----\t----\t----\t------\t--------\t------\t-------")
		for _, a := range attempts {
			result := "❌"
			if a.IsCorrect {
				result = "✅"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
				a.Timestamp.Format("2006-01-02 15:04"), a.ItemID, a.Mode,
				a.UserInput, a.ExpectedAnswer, result, a.Latency())
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().Int64Var(&historyLearner, "learner", 0, "learner (Telegram user) id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of answers")
	_ = historyCmd.MarkFlagRequired("learner")
	rootCmd.AddCommand(historyCmd)
}

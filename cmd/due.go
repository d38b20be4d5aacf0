package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	dueLearner int64
	dueLimit   int
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show words due for review today",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, svc, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		queue, err := svc.DueQueue(context.Background(), dueLearner, dueLimit)
		if err != nil {
			return err
		}
		if len(queue) == 0 {
			fmt.Println("✅ No words due today! Good job.")
			return nil
		}

		fmt.Printf("🔥 %d words due today:\n\n", len(queue))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTerm\tTranslation\tMastery\tInterval\tNext Review")
		fmt.Fprintln(w, "--\t----\t-----------\t-------\t--------\t-----------")
		for _, e := range queue {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.0f%%\t%dd\t%s\n",
				e.Item.ID, e.Item.Term, e.Item.Translation,
				e.Progress.MasteryScore*100, e.Progress.ReviewIntervalDays,
				e.Progress.NextReviewDate.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

func init() {
	dueCmd.Flags().Int64Var(&dueLearner, "learner", 0, "learner (Telegram user) id")
	dueCmd.Flags().IntVar(&dueLimit, "limit", 20, "maximum number of words, 0 for all")
	_ = dueCmd.MarkFlagRequired("learner")
	rootCmd.AddCommand(dueCmd)
}

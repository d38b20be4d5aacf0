package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsLearner int64

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a learner's vocabulary statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, svc, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := svc.Stats(context.Background(), statsLearner)
		if err != nil {
			return err
		}

		fmt.Println("📊 Statistics")
		fmt.Println("-------------")
		fmt.Printf("Total Words:   %d\n", st.TotalItems)
		fmt.Printf("Known:         %d\n", st.Known)
		fmt.Printf("Learning:      %d\n", st.Learning)
		fmt.Printf("Not Started:   %d\n", st.Unknown)
		fmt.Printf("Due Today:     %d\n", st.Due)
		fmt.Printf("Accuracy:      %.0f%% (%d/%d)\n", st.Accuracy*100, st.CorrectAttempts, st.TotalAttempts)
		fmt.Printf("Last 7 Days:   %d answers, %d typed, %.0f%% correct\n",
			st.Week.Total, st.Week.Production, st.Week.Accuracy()*100)
		for _, e := range st.Strongest {
			fmt.Printf("  %s  %.0f%%\n", e.Item.Term, e.Progress.MasteryScore*100)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int64Var(&statsLearner, "learner", 0, "learner (Telegram user) id")
	_ = statsCmd.MarkFlagRequired("learner")
	rootCmd.AddCommand(statsCmd)
}

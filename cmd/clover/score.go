package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/pkg/relevance"
)

var scoreExpected string

var scoreCmd = &cobra.Command{
	Use:   "score <search term> <candidate>",
	Short: "Print the relevance score of a candidate name for a search term",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score := relevance.NewScorer().Score(args[0], args[1])
		threshold := relevance.Threshold(scoreExpected)

		verdict := "not relevant"
		if score >= threshold {
			verdict = "relevant"
		}
		fmt.Printf("%.3f (%s at threshold %.2f)\n", score, verdict, threshold)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreExpected, "expected", relevance.ExactMatch, "Expected result type selecting the threshold")
}

package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/leadmatch/leadmatch/internal/model"
)

var (
	matchUserURL string
	matchLeadURL string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Scrape two company websites and score the match",
	Long:  "Fetches both sites, extracts a profile from each, runs the comparison, and writes the report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if matchUserURL == "" || matchLeadURL == "" {
			return eris.New("both --user-url and --lead-url are required")
		}

		env, err := initWorkflow()
		if err != nil {
			return err
		}
		defer env.Close()

		rep, err := env.Controller.QuickMatch(cmd.Context(), matchUserURL, matchLeadURL)
		if err != nil {
			return err
		}

		printSummary(rep)
		return nil
	},
}

func printSummary(rep *model.ComparisonReport) {
	fmt.Printf("Match: %s vs %s\n\n", rep.UserCompany.Name, rep.LeadCompany.Name)

	if rep.Comparison.Degraded() {
		fmt.Printf("Comparison degraded: %s\n", rep.Comparison.Error)
	} else {
		fmt.Printf("%s\n\n", rep.Comparison.MatchSummary)
	}

	for _, key := range model.ScoreCategories {
		fmt.Printf("  %-20s %3d\n", key, rep.NumericSummary.Scores[key])
	}
	fmt.Printf("\nOverall match score: %d/100\n", rep.NumericSummary.OverallScore)
	if rep.NumericSummary.Recommendation != "" {
		fmt.Printf("Recommendation: %s\n", rep.NumericSummary.Recommendation)
	}
	if rep.SavedTo != "" {
		fmt.Printf("\nReport saved to %s\n", rep.SavedTo)
	}
}

func init() {
	matchCmd.Flags().StringVar(&matchUserURL, "user-url", "", "your company's website")
	matchCmd.Flags().StringVar(&matchLeadURL, "lead-url", "", "the lead company's website")
	rootCmd.AddCommand(matchCmd)
}

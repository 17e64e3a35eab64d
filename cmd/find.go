package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var findMax int

var findCmd = &cobra.Command{
	Use:   "find <company name>",
	Short: "Search for a company's official website",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initWorkflow()
		if err != nil {
			return err
		}
		defer env.Close()

		name := args[0]
		for _, extra := range args[1:] {
			name += " " + extra
		}

		results := env.Search.Find(cmd.Context(), name, findMax)
		if len(results) == 0 {
			fmt.Printf("No candidate websites found for %q.\n", name)
			return nil
		}

		fmt.Printf("Candidates for %q:\n\n", name)
		for i, res := range results {
			fmt.Printf("%d. %s\n   %s\n", i+1, res.Title, res.URL)
			if res.Snippet != "" {
				fmt.Printf("   %s\n", res.Snippet)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	findCmd.Flags().IntVar(&findMax, "max", 5, "maximum candidates to show")
	rootCmd.AddCommand(findCmd)
}

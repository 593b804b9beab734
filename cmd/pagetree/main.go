package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pagetree",
	Short: "Reconstruct textbook chapter structure from PDF page geometry",
	Long: `pagetree rebuilds the logical reading order of two-column textbook pages,
locates figures from drawn geometry, and folds headings, paragraphs,
equations and exercises into a hierarchical chapter JSON.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

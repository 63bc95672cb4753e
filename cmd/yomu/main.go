// Package main is the entry point for the yomu CLI: a Japanese reading
// comprehension analyzer that classifies document words against a personal
// vocabulary, records encounters, and ranks what to learn next.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "yomu",
	Short: "Comprehension analysis for Japanese text",
	Long: `yomu analyzes Japanese documents against a personal vocabulary: it
segments text into dictionary-form words, marks each as known, unknown or
ignored, mines i+1 sentences, records word encounters, and scores unknown
words by acquisition priority.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the yomu version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("yomu %s\n", version)
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiBaseURL string
	authToken  string
)

var rootCmd = &cobra.Command{
	Use:   "qauym",
	Short: "Qauym command-line client",
	Long:  "Browse Qauym feeds and inspect ranking output from the terminal",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", envOrDefault("QAUYM_API_URL", "http://localhost:8787"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("QAUYM_TOKEN"), "Bearer token (omit to browse anonymously)")

	rootCmd.AddCommand(feedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

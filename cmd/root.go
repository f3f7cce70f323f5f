package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "clauselens",
	Short: "Document decisioning over unstructured policy files",
	Long: `clauselens answers natural-language questions against a folder of
unstructured documents (PDF, DOCX, email) and turns the answers into
structured decisions with amounts, justifications, and the clauses
they rest on. It serves an HTTP decision API, a conversational chat
session, and MCP tools for AI agents.`,
}

func Execute() error {
	// Provider API keys are commonly kept in a .env file next to the config.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".clauselens.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

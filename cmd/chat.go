package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/pipeline"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session over the indexed documents",
	Long: `Opens a terminal chat session against the indexed documents. Follow-up
questions are understood in the context of the running conversation.
Type "exit" or press Ctrl-D to quit.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		_, session, _, err := buildPipeline(context.Background(), cfg)
		exitOnError(err)

		fmt.Println("clauselens chat. Ask about the indexed documents; type \"exit\" to quit.")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "exit" || input == "quit" {
				return
			}

			answer, err := session.Ask(context.Background(), input)
			if err != nil {
				if errors.Is(err, pipeline.ErrNoIndex) {
					fmt.Fprintf(os.Stderr, "No documents are indexed. Put documents in %s and run `clauselens index`.\n", cfg.DataDir)
					return
				}
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Println(answer)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

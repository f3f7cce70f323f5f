package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/audit"
	"github.com/clauselens/clauselens/internal/db"
	mcpserver "github.com/clauselens/clauselens/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing clause search and claim decisioning tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pipe, _, _, err := buildPipeline(context.Background(), cfg)
		if err != nil {
			return err
		}

		var auditStore *audit.Store
		dbPath := filepath.Join(cfg.StoreDir, "clauselens.db")
		database, err := db.Open(dbPath)
		if err != nil {
			// The decision log is optional for MCP use; search and
			// decisioning still work without it.
			fmt.Fprintf(os.Stderr, "Warning: could not open decision log at %s: %v\n", dbPath, err)
		} else {
			defer database.Close()
			auditStore = audit.NewStore(database)
		}

		mcpserver.Version = Version
		srv := mcpserver.NewServer(pipe.DefaultIndex(), pipe, auditStore)

		fmt.Fprintf(os.Stderr, "clauselens MCP server started on stdio (data=%s)\n", cfg.DataDir)

		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/audit"
	"github.com/clauselens/clauselens/internal/db"
	"github.com/clauselens/clauselens/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP decision API",
	Long: `Starts the clauselens HTTP server. It indexes the configured data
folder on startup and exposes POST /decision for one-shot decisioning
(with optional per-request document uploads), a WebSocket chat session
at /ws/chat, and the decision log under /api/decisions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort != 0 {
			cfg.Server.Port = serverPort
		}

		pipe, session, loader, err := buildPipeline(context.Background(), cfg)
		if err != nil {
			return err
		}

		dbPath := filepath.Join(cfg.StoreDir, "clauselens.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		auditStore := audit.NewStore(database)

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAll,
		}, pipe, session, loader, auditStore)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "clauselens server v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Decision log: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Data folder: %s\n", cfg.DataDir)

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}

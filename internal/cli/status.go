package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/config"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show quote sync status counts and recent failures",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		initLogger(nil)
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	initLogger(cfg)

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.QueryContext(ctx, "SELECT status, COUNT(*) FROM quotes GROUP BY status ORDER BY status")
	if err != nil {
		slog.Error("Failed to query quotes", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = rows.Close()
	}()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "STATUS\tQUOTES")
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\n", status, count)
	}
	_ = w.Flush()

	failed, err := db.QueryContext(ctx, `
		SELECT id, last_sync_error, sync_attempts FROM quotes
		WHERE status = 'failed' ORDER BY updated_at DESC LIMIT 10`)
	if err != nil {
		return
	}
	defer func() {
		_ = failed.Close()
	}()

	fmt.Println("\nRecent failures:")
	for failed.Next() {
		var id, reason string
		var attempts int
		if err := failed.Scan(&id, &reason, &attempts); err != nil {
			continue
		}
		fmt.Printf("  %s (attempts=%d): %s\n", id, attempts, reason)
	}
}

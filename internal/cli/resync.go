package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/config"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/crm"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage/postgres"
	syncer "github.com/andomingos87/seleto-industrial-sub000/internal/sync"
)

var resyncCmd = &cobra.Command{
	Use:   "resync [quote_id]",
	Short: "Force a fresh CRM sync for a quote, even if it already has an opportunity",
	Args:  cobra.ExactArgs(1),
	Run:   runResync,
}

func init() {
	rootCmd.AddCommand(resyncCmd)
}

func runResync(cmd *cobra.Command, args []string) {
	quoteID, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Printf("Invalid quote id: %v\n", err)
		os.Exit(1)
	}

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

	quotes := postgres.NewQuoteRepo(db)
	leads := postgres.NewLeadRepo(db)

	quote, err := quotes.GetByID(ctx, quoteID)
	if err != nil {
		slog.Error("Failed to load quote", "error", err)
		os.Exit(1)
	}
	lead, err := leads.GetByID(ctx, quote.LeadID)
	if err != nil {
		slog.Error("Failed to load lead", "error", err)
		os.Exit(1)
	}

	client := crm.NewClient(cfg.CRM)
	orchestrator := syncer.NewOrchestrator(client, quotes, nil)

	opportunityID, err := orchestrator.Sync(ctx, *lead, quote, true)
	if err != nil {
		slog.Error("Resync failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully resynced quote %s, opportunity %d\n", quoteID, opportunityID)
}

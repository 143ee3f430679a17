package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/income-clean/internal/config"
	"github.com/income-clean/internal/db"
	"github.com/income-clean/internal/diagnostics"
	"github.com/income-clean/internal/etl"
	"github.com/income-clean/internal/pipeline"
	"github.com/income-clean/internal/record"
	"github.com/income-clean/internal/schedule"
	"github.com/income-clean/internal/store"
	"github.com/income-clean/internal/web"
)

var (
	dbConn *db.Connection
	cfg    config.Config
)

func main() {
	config.LoadEnv()
	cfg = config.FromEnv()

	var err error
	dbConn, err = db.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	rootCmd := &cobra.Command{
		Use:   "cleaner",
		Short: "Household income dataset cleaner",
		Long:  `Copies raw household income rows into a tracked cleaned table, removing duplicates and normalizing text, on a schedule or on insert.`,
	}

	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createRunCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createReportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// buildPipeline wires the Postgres stores into a pipeline.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, *store.PGRawSource, *store.PGRunState, error) {
	raw, err := store.NewPGRawSource(ctx, dbConn.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	state, err := store.NewPGRunState(ctx, dbConn.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	clean := store.NewPGCleanStore(dbConn.DB)
	pipe := pipeline.New(raw, clean, pipeline.Options{
		State:  state,
		Budget: cfg.RunBudget(),
		Debug:  cfg.Debug,
	})
	return pipe, raw, state, nil
}

func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, insertion hook and HTTP surface",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pipe, raw, state, err := buildPipeline(ctx)
			if err != nil {
				log.Fatalf("Failed to build pipeline: %v", err)
			}

			inserts := make(chan record.RawRecord, 256)
			hook := schedule.NewHook(pipe, cfg.HookMode)
			go hook.Run(ctx, inserts)

			sched := schedule.NewScheduler(pipe, state, cfg.Interval(), cfg.CatchUp)
			go sched.Run(ctx)
			log.Printf("Scheduler armed: every %v, catch-up %v, hook mode %s",
				cfg.Interval(), cfg.CatchUp, cfg.HookMode)

			server := web.NewServer(cfg.HTTPHost, cfg.HTTPPort, dbConn.DB, raw, pipe, inserts)
			if err := server.Start(); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		},
	}
}

func createRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one full cleaning pass and print the report",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			pipe, _, _, err := buildPipeline(ctx)
			if err != nil {
				log.Fatalf("Failed to build pipeline: %v", err)
			}

			rep, err := pipe.Run(ctx)
			if err != nil {
				log.Fatalf("Cleaning run failed: %v", err)
			}
			printReport(rep)
		},
	}
}

func createImportCmd() *cobra.Command {
	var cleanAfter bool

	importCmd := &cobra.Command{
		Use:   "import [csv-file]",
		Short: "Bulk-load raw rows from a CSV export",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			pipe, raw, _, err := buildPipeline(ctx)
			if err != nil {
				log.Fatalf("Failed to build pipeline: %v", err)
			}

			loader := etl.NewLoader(raw, cfg.Debug)
			loaded, skipped, err := loader.LoadCSV(ctx, args[0])
			if err != nil {
				log.Fatalf("Import failed: %v", err)
			}
			fmt.Printf("Imported %d rows (%d skipped)\n", loaded, skipped)

			if cleanAfter {
				rep, err := pipe.Run(ctx)
				if err != nil {
					log.Fatalf("Cleaning run failed: %v", err)
				}
				printReport(rep)
			}
		},
	}
	importCmd.Flags().BoolVar(&cleanAfter, "clean", false, "run the cleaning pipeline after import")
	return importCmd
}

func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity and show row counts",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			if _, _, _, err := buildPipeline(ctx); err != nil {
				log.Fatalf("Database not ready: %v", err)
			}
			fmt.Println("Database connection successful!")

			counts, err := diagnostics.RowCounts(ctx, dbConn.DB)
			if err != nil {
				log.Printf("Error counting rows: %v", err)
				return
			}
			fmt.Printf("Raw rows:     %d\n", counts.RawRows)
			fmt.Printf("Cleaned rows: %d\n", counts.CleanedRows)
		},
	}
}

func createReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the residual-duplicate and per-state diagnostics",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			groups, err := diagnostics.DuplicateReport(ctx, dbConn.DB)
			if err != nil {
				log.Fatalf("Duplicate report failed: %v", err)
			}
			if len(groups) == 0 {
				fmt.Println("No ids with multiple cleaned rows.")
			}
			for _, g := range groups {
				note := "ok: distinct ingestion times"
				if g.DistinctTimestamps < g.Count {
					note = "RESIDUE: shared ingestion time"
				}
				fmt.Printf("id %d: %d rows, %d distinct timestamps (%s)\n",
					g.ID, g.Count, g.DistinctTimestamps, note)
			}

			states, err := diagnostics.CountByState(ctx, dbConn.DB)
			if err != nil {
				log.Fatalf("State report failed: %v", err)
			}
			fmt.Println()
			for _, s := range states {
				fmt.Printf("%-20s %d\n", s.StateName, s.Count)
			}
		},
	}
}

func printReport(rep pipeline.CleaningReport) {
	fmt.Printf("Copied:             %d\n", rep.Copied)
	fmt.Printf("Skipped (invalid):  %d\n", rep.Skipped)
	fmt.Printf("Duplicates removed: %d\n", rep.DuplicatesRemoved)
	fmt.Printf("Normalized:         %d\n", rep.Normalized)
	fmt.Printf("Duration:           %v\n", rep.Duration)
}

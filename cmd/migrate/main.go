// Command migrate manages the legacy integer-to-UUID key migration of
// the embedded store.
//
// Usage:
//
//	migrate [flags] <command>
//
// Commands:
//
//	run       perform the migration (no-op when already migrated)
//	status    report whether the store is UUID-keyed
//	validate  run the integrity checks and print the report
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/infrastructure/migration"
	"github.com/pos/backend/internal/infrastructure/persistence"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	snapshotter := persistence.NewFileSnapshotter(db, cfg.Database.BackupDir, log)
	migrator := migration.NewMigrator(db.DB, snapshotter, log)
	ctx := context.Background()

	switch command {
	case "run":
		result, err := migrator.Run(ctx)
		if err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		if !result.Migrated {
			log.Info("Store already migrated, nothing to do")
			return
		}
		log.Info("Migration completed",
			zap.Any("row_counts", result.RowCounts),
			zap.Bool("valid", result.Validation.Passed),
		)

	case "status":
		complete, err := migrator.IsComplete(ctx)
		if err != nil {
			log.Fatal("Failed to probe migration state", zap.Error(err))
		}
		if complete {
			fmt.Println("migrated: store is UUID-keyed")
		} else {
			fmt.Println("pending: store still uses integer keys")
		}

	case "validate":
		validator := migration.NewValidator(db.DB, log)
		report, err := validator.Validate(ctx)
		if err != nil {
			log.Fatal("Validation failed to run", zap.Error(err))
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatal("Failed to render report", zap.Error(err))
		}
		fmt.Println(string(out))
		if !report.Passed {
			os.Exit(1)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [flags] <command>

Commands:
  run       perform the legacy key migration (no-op when already migrated)
  status    report whether the store is UUID-keyed
  validate  run the integrity checks and print the report

Flags:
  -log-level string   Log level (debug, info, warn, error) (default "info")`)
}

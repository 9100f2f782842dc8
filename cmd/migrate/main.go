// Command migrate manages the attendance schema.
//
//	migrate up      apply migrations (seed data too when DB_SEED_DATA=true)
//	migrate down    roll every migration back
//	migrate reset   down, then up
//
// On SQLite the schema is created from the models and down drops the tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"swiftattend/internal/attendance/db"
	"swiftattend/internal/config"
	"swiftattend/internal/database"
	"swiftattend/internal/database/migrations"
	"swiftattend/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	seed := flag.Bool("seed", false, "also apply seed-data migrations (postgres)")
	flag.Parse()

	logger := logger.NewLogger()
	defer logger.Close()

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open database: %v", err))
	}

	if cfg.Database.Driver != config.DriverPostgres {
		defer bunDB.Close()
		store := db.New(bunDB)
		if err := runSQLite(ctx, store, command); err != nil {
			logger.Fatal("MIGRATE", err.Error())
		}
		logger.Info("MIGRATE", fmt.Sprintf("✅ %s done", command))
		return
	}

	opts := migrations.DefaultOptions()
	opts.SeedData = *seed || cfg.Database.SeedData
	runner := migrations.NewRunner(bunDB, opts, logger)
	defer func() {
		if err := runner.Close(); err != nil {
			logger.Error("MIGRATE", err.Error())
		}
	}()

	switch command {
	case "up":
		err = runner.RunMigrations()
	case "down":
		err = runner.MigrateDown()
	case "reset":
		if err = runner.MigrateDown(); err == nil {
			err = runner.RunMigrations()
		}
	default:
		logger.Error("MIGRATE", fmt.Sprintf("unknown command %q", command))
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("MIGRATE", err.Error())
	}
	logger.Info("MIGRATE", fmt.Sprintf("✅ %s done", command))
}

func runSQLite(ctx context.Context, store *db.DB, command string) error {
	switch command {
	case "up":
		return store.CreateSchema(ctx)
	case "down":
		return store.DropSchema(ctx)
	case "reset":
		if err := store.DropSchema(ctx); err != nil {
			return err
		}
		return store.CreateSchema(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

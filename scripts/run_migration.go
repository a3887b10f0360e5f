package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/ridwanfathin/price-dashboard-service/internal/database"
)

func main() {
	dir := flag.String("dir", "scripts/migrations", "directory holding the .sql migrations")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, os.Getenv("POSTGRES_DB_URL"))
	if err != nil {
		slog.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil || len(files) == 0 {
		slog.Error("no migration files found", "dir", *dir, "error", err)
		os.Exit(1)
	}
	sort.Strings(files)

	for _, file := range files {
		migrationSQL, err := os.ReadFile(file)
		if err != nil {
			slog.Error("unable to read migration file", "file", file, "error", err)
			os.Exit(1)
		}

		err = db.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, string(migrationSQL))
			return err
		})
		if err != nil {
			slog.Error("failed to execute migration", "file", file, "error", err)
			os.Exit(1)
		}
		slog.Info("migration applied", "file", filepath.Base(file))
	}
}

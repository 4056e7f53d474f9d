package main

import (
	"database/sql"
	"flag"
	"fmt"
	"freight-route-engine/internal/adapters/repositories"
	"freight-route-engine/internal/config"
	"freight-route-engine/internal/platform/db"
	"freight-route-engine/internal/platform/logger"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// dbtool creates the offer store schema and loads a seed file.
//
//	dbtool -driver postgres            (DATABASE_URL)
//	dbtool -driver sqlite -path x.db
func main() {
	log, err := logger.New(config.Get("LOG_LEVEL", "info"), "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	driver := flag.String("driver", config.Get("DATABASE_DRIVER", "sqlite"), "sqlite or postgres")
	path := flag.String("path", config.Get("DATABASE_PATH", "freight.db"), "sqlite database file")
	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/offers.yaml"), "seed file (json or yaml); empty skips seeding")
	flag.Parse()

	dialect := db.Dialect(*driver)

	var conn *sql.DB
	switch dialect {
	case db.Postgres:
		databaseURL := os.Getenv("DATABASE_URL")
		if strings.TrimSpace(databaseURL) == "" {
			log.Fatal("DATABASE_URL is required")
		}
		conn, err = db.OpenPostgres(databaseURL)
	case db.SQLite:
		conn, err = db.OpenSQLite(*path)
	default:
		log.Fatal("unsupported driver", zap.String("driver", *driver))
	}
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	if err := initAndSeed(log, conn, dialect, *seedPath); err != nil {
		log.Fatal("dbtool failed", zap.Error(err))
	}
}

func initAndSeed(log *zap.Logger, conn *sql.DB, dialect db.Dialect, seedPath string) error {
	log.Info("initializing database schema", zap.String("dialect", string(dialect)))
	if err := repositories.InitSchema(conn, dialect); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info("schema ready")

	if seedPath == "" {
		return nil
	}

	log.Info("seeding database", zap.String("seed", seedPath))
	if err := repositories.SeedFromFile(conn, dialect, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info("seeding complete")

	return nil
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mchatman/bankaccounts/internal/config"
	"github.com/mchatman/bankaccounts/internal/logging"
	"github.com/mchatman/bankaccounts/internal/migrate"
)

// Usage: go run ./cmd/migrate [MONGO_URI] [DATABASE]
// Missing arguments fall back to the service configuration.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	mongoURI, database := cfg.MongoURI, cfg.Database
	if len(os.Args) > 1 {
		mongoURI = os.Args[1]
	}
	if len(os.Args) > 2 {
		database = os.Args[2]
	}

	logger, err := logging.New(true)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("running migrations", zap.String("database", database))

	if err := migrate.RunMigrations(context.Background(), mongoURI, database, nil, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	logger.Info("migrations completed", zap.String("database", database))
}

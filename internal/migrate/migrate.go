package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mchatman/bankaccounts/internal/account"
)

//go:embed migrations/*.json
var migrationFiles embed.FS

// databaseURL returns mongoURI with its path set to database. The mongodb
// migrate driver reads the target database from the URL path.
func databaseURL(mongoURI, database string) (string, error) {
	u, err := url.Parse(mongoURI)
	if err != nil {
		return "", fmt.Errorf("parsing mongo URI: %w", err)
	}
	if database == "" {
		return "", errors.New("database name is empty")
	}
	u.Path = "/" + database
	return u.String(), nil
}

// RunMigrations applies the embedded migrations to database. When
// golang-migrate cannot run and db is non-nil, the indexes are created
// directly instead.
func RunMigrations(ctx context.Context, mongoURI, database string, db *mongo.Database, logger *zap.Logger) error {
	logger.Info("running database migrations", zap.String("database", database))

	resolvedURL, err := databaseURL(mongoURI, database)
	if err != nil {
		return err
	}

	err = runGolangMigrate(resolvedURL, logger)
	if err == nil {
		return nil
	}
	if db == nil {
		return err
	}

	logger.Warn("golang-migrate failed, creating indexes directly", zap.Error(err))
	return ensureIndexes(ctx, db, logger)
}

func runGolangMigrate(databaseURL string, logger *zap.Logger) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no new migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations completed", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	name, err := db.Collection(account.CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetName("created_at_1"),
	})
	if err != nil {
		return fmt.Errorf("failed to create accounts index: %w", err)
	}

	logger.Info("accounts index ensured", zap.String("index", name))
	return nil
}

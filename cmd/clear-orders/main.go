// Command clear-orders removes every order document. Intended for local
// development and demo resets, never for production data.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"github.com/tabify/order-sync/internal/infrastructure/db/mongo"
	"github.com/tabify/order-sync/internal/pkg/config"
	"github.com/tabify/order-sync/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	deleted, err := mongo.NewOrderRepository(db).DeleteAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to clear orders")
	}

	log.Info().Int64("deleted", deleted).Str("database", cfg.Mongo.Database).Msg("orders cleared")
}

package main

import (
	"context"
	"log"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/config"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/database"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/appstate"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/refcode"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/features/sweep"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// One-shot expiry sweep for environments that run it from an external
// scheduler instead of the embedded cron.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	mdb := &database.MongodbDB{DB: client.Database(cfg.DBName)}

	svc := sweep.NewSweepService(
		appstate.NewStateRepository(mdb),
		refcode.NewCodeRepository(mdb),
		cfg, zl,
	)
	if err := svc.RunOnce(ctx); err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
}

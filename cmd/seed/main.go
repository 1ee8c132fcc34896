package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/zfogg/screams/backend/internal/config"
	"github.com/zfogg/screams/backend/internal/container"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/seed"
)

func main() {
	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var run func(ctx context.Context, s *seed.Seeder) error
	switch command {
	case "dev":
		run = func(ctx context.Context, s *seed.Seeder) error { return s.SeedDev(ctx, seed.DevCounts) }
	case "test":
		run = func(ctx context.Context, s *seed.Seeder) error { return s.SeedTest(ctx) }
	case "clean":
		run = func(ctx context.Context, s *seed.Seeder) error { return s.Clean(ctx) }
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed alice, bob and charlie with one scream each")
		fmt.Println("  clean - Remove all data (use with caution)")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	ctx := context.Background()

	// Triggers run inline so notifications exist when the command returns
	c, err := container.Build(ctx, cfg, container.Options{
		ServiceName: "screams-seed",
		Bus:         container.BusSync,
		Migrate:     true,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize services: %v", err)
	}
	defer c.Cleanup(ctx)

	log.Printf("🌱 Running seed %s...", command)
	seeder := seed.NewSeeder(c.Store(), c.Auth(), cfg.ImageBaseURL)
	if err := run(ctx, seeder); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✅ Seed %s finished", command)
}

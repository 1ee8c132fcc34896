package main

import (
	"fmt"
	"log"
	"os"

	"github.com/zfogg/screams/backend/internal/config"
	"github.com/zfogg/screams/backend/internal/database"
	"github.com/zfogg/screams/backend/internal/logger"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp()
	case "check":
		checkConnection()
	default:
		fmt.Println("Usage: migrate [up|check]")
		fmt.Println("  up    - Create or update every table and index")
		fmt.Println("  check - Connect and ping the database")
		os.Exit(1)
	}
}

func connect() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}

	log.Println("🔄 Connecting to database...")
	if err := database.Initialize(cfg); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connected")
}

func runMigrationsUp() {
	connect()
	defer database.Close()

	log.Println("📈 Running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ All migrations completed successfully!")
}

func checkConnection() {
	connect()
	defer database.Close()

	if err := database.Health(); err != nil {
		log.Fatalf("❌ Database ping failed: %v", err)
	}
	log.Println("✅ Database is reachable")
}

// Command repair recomputes scream counters and removes documents left behind by a scream
// delete whose cascade never ran.
package main

import (
	"context"
	"log"

	"github.com/zfogg/screams/backend/internal/config"
	"github.com/zfogg/screams/backend/internal/container"
	"github.com/zfogg/screams/backend/internal/logger"
)

func main() {
	log.Println("🧹 Repairing counters and orphaned documents")
	log.Println("===========================================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	ctx := context.Background()

	// Deletes made here go through the triggers like any other write
	c, err := container.Build(ctx, cfg, container.Options{
		ServiceName: "screams-repair",
		Bus:         container.BusSync,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize services: %v", err)
	}
	defer c.Cleanup(ctx)

	result, err := c.Store().Repair(ctx)
	if err != nil {
		log.Fatalf("❌ Repair failed: %v", err)
	}

	if result.Counters == 0 && result.Orphans.Total() == 0 {
		log.Println("✅ Nothing to repair")
		return
	}

	log.Printf("📊 Removed %d orphaned comments, %d likes, %d notifications",
		result.Orphans.Comments, result.Orphans.Likes, result.Orphans.Notifications)
	log.Printf("📊 Rewrote counters on %d screams", result.Counters)
	log.Println("✅ Repair finished")
}

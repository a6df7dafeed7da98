// Applies the embedded schema migrations to the configured PostgreSQL database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"scoring-engine/internal/config"
	"scoring-engine/internal/services/database"
)

func main() {
	fmt.Println("=== Database Migration Script ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	databaseURL := cfg.DatabaseURL()

	fmt.Printf("📡 Migrating %s:%d/%s...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	applied, err := database.Migrate(ctx, databaseURL)
	if err != nil {
		fmt.Printf("❌ Migration failed: %v\n", err)
		os.Exit(1)
	}

	if len(applied) == 0 {
		fmt.Println("✅ Schema already up to date")
	}
	for _, name := range applied {
		fmt.Printf("   ✅ %s\n", name)
	}

	version, err := database.MigrationVersion(ctx, databaseURL)
	if err != nil {
		fmt.Printf("⚠️  Could not read schema version: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("🎉 Schema version: %d\n", version)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Test the connections: go run ./scripts/check")
	fmt.Println("  2. Start the server with HISTORY_BACKEND=postgres")
}

// Checks the environment and the configured history backends.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"scoring-engine/internal/config"
	"scoring-engine/internal/history"
	"scoring-engine/internal/services/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🔍 Testing connections...")
	fmt.Println()

	fmt.Println("1️⃣  Checking Environment Variables:")
	checkEnvVar("HISTORY_BACKEND")
	checkEnvVar("SCORING_PRESET")
	checkEnvVar("RULES_FILE")
	checkEnvVar("AWS_REGION")
	checkEnvVar("S3_BUCKET")
	checkEnvVar("SES_SENDER_EMAIL")
	checkEnvVar("DB_PASSWORD")
	fmt.Println()

	fmt.Println("2️⃣  Testing Database Connection:")
	testDatabaseConnection(cfg)
	fmt.Println()

	fmt.Println("3️⃣  Testing Redis Connection:")
	testRedisConnection(cfg)
	fmt.Println()

	fmt.Println("✅ Connection tests complete!")
}

func checkEnvVar(name string) {
	value := os.Getenv(name)
	if value == "" {
		fmt.Printf("   ❌ %s: NOT SET\n", name)
		return
	}

	masked := value
	if name == "DB_PASSWORD" {
		masked = "********"
	}
	fmt.Printf("   ✅ %s: %s\n", name, masked)
}

func testDatabaseConnection(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewFromURL(cfg.DatabaseURL())
	if err != nil {
		fmt.Printf("   ❌ Database connection failed: %v\n", err)
		return
	}
	defer db.Close()

	fmt.Println("   ✅ Database connection successful!")

	version, err := database.MigrationVersion(ctx, cfg.DatabaseURL())
	if err != nil {
		fmt.Printf("   ⚠️  Could not read schema version: %v\n", err)
		return
	}
	fmt.Printf("   📊 Schema version: %d\n", version)
}

func testRedisConnection(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := history.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		fmt.Printf("   ❌ Redis at %s unreachable: %v\n", cfg.RedisAddr, err)
		return
	}

	loans, err := client.LLen(ctx, cfg.RedisKey("loans")).Result()
	if err != nil {
		fmt.Printf("   ⚠️  Could not read loan history: %v\n", err)
		return
	}
	fmt.Printf("   ✅ Redis connection successful! (%d loan records)\n", loans)
}

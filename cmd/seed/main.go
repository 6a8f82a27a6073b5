package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/qauym-app/backend/internal/database"
	"github.com/qauym-app/backend/internal/logger"
	"github.com/qauym-app/backend/internal/seed"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), ""); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	// Parse command
	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev":
		runSeed(func(s *seed.Seeder) error { return s.SeedDev() }, "Development database seeded successfully!")
	case "test":
		runSeed(func(s *seed.Seeder) error { return s.SeedTest() }, "Test database seeded successfully!")
	case "clean":
		runSeed(func(s *seed.Seeder) error { return s.Clean() }, "Seed data cleaned successfully!")
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed test database with minimal data")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}

func runSeed(fn func(*seed.Seeder) error, successMsg string) {
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := seed.NewSeeder(database.DB)
	if err := fn(seeder); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println(successMsg)
}

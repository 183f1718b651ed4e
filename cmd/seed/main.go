// Command seed fills the development API database with fake data.
package main

import (
	"flag"
	"log"

	"avocado/internal/config"
	"avocado/internal/database"
	"avocado/internal/seed"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading configuration")
	numUsers := flag.Int("users", 10, "Number of users to create")
	numPosts := flag.Int("posts", 30, "Number of posts to create")
	numComments := flag.Int("comments", 5, "Maximum comments per post")
	maxDays := flag.Int("days", 90, "Spread post dates over this many days")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	preset := flag.String("preset", "", "Apply a named preset (small, demo, large) instead of the count flags")
	randSeed := flag.Int64("rand", 0, "Random seed for repeatable data (0 = time based)")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	opts := seed.Options{
		Users:           *numUsers,
		Posts:           *numPosts,
		CommentsPerPost: *numComments,
		MaxDays:         *maxDays,
	}
	if *preset != "" {
		p, err := seed.Preset(*preset)
		if err != nil {
			log.Fatalf("Preset: %v", err)
		}
		opts = p
		log.Printf("Applying preset: %s (ignoring count flags)", *preset)
	}
	opts.Clean = opts.Clean || *shouldClean
	opts.RandSeed = *randSeed

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	summary, err := seed.Seed(db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments", summary.Users, summary.Posts, summary.Comments)
	log.Printf("Log in as %s with password %q; every seeded account shares it", seed.DemoEmail, seed.DefaultPassword)
}

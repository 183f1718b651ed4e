// Command mockapi runs the development blog REST API the web client talks to.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"avocado/internal/config"
	"avocado/internal/database"
	"avocado/internal/mockapi"
	"avocado/internal/observability"
	"avocado/internal/seed"
)

var version = "dev"

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading configuration")
	preset := flag.String("seed", "", "seed preset to apply when the database has no accounts (e.g. demo)")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfigFor(cfg, "avocado-mockapi", version))
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if cfg.IsProduction() {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	if *preset != "" {
		var accounts int64
		if err := db.Model(&database.User{}).Count(&accounts).Error; err != nil {
			log.Fatalf("Failed to count accounts: %v", err)
		}
		if accounts == 0 {
			opts, err := seed.Preset(*preset)
			if err != nil {
				log.Fatalf("Failed to load seed preset: %v", err)
			}
			if _, err := seed.Seed(db, opts); err != nil {
				log.Fatalf("Seeding failed: %v", err)
			}
		}
	}

	api, err := mockapi.New(cfg, db)
	if err != nil {
		log.Fatalf("Failed to create API: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down API...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			log.Printf("API shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := api.Start(); err != nil {
		log.Fatal(err)
	}
}

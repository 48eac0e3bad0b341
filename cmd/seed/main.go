// Command main fills the database with demo listings, posts and users.
package main

import (
	"context"
	"flag"
	"log"

	"homestead/internal/config"
	"homestead/internal/database"
	"homestead/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numProperties := flag.Int("properties", 3, "Listings per user")
	numPosts := flag.Int("posts", 2, "Posts per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	s := seed.NewSeeder(db, *randSeed)
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx, seed.Options{
		Users:             *numUsers,
		PropertiesPerUser: *numProperties,
		PostsPerUser:      *numPosts,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d listings and %d posts", sum.Users, sum.Properties, sum.Posts)
	log.Printf("All demo users have the password: %s", seed.DemoPassword)
}

// Command seed populates the configured storage backend with demo data.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"evcircle/internal/config"
	"evcircle/internal/seed"
	"evcircle/internal/storage/open"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	numStations := flag.Int("stations", defaults.NumStations, "Number of charging stations to create")
	numQuestions := flag.Int("questions", defaults.NumQuestions, "Number of forum questions to create")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StorageDriver == config.DriverMemory {
		return errors.New("STORAGE_DRIVER=memory keeps nothing after exit; seed postgres, sqlite or mongo instead")
	}

	ctx := context.Background()
	store, err := open.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = store.Close(ctx) }()

	log.Printf("Seeding %s: %d users, %d posts, %d stations, %d questions",
		store.Backend(), *numUsers, *numPosts, *numStations, *numQuestions)

	sum, err := seed.New(store, seed.Options{
		NumUsers:     *numUsers,
		NumPosts:     *numPosts,
		NumStations:  *numStations,
		NumQuestions: *numQuestions,
		Seed:         *randSeed,
	}).Run(ctx)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	log.Printf("Done: %s", sum)
	log.Printf("All seeded accounts use the password %q (admin: %s)", seed.DefaultPassword, seed.AdminEmail)
	return nil
}

// Command seed fills a development database with demo data.
package main

import (
	"context"
	"flag"

	"artfeed/internal/bootstrap"
	"artfeed/internal/config"
	"artfeed/internal/database"
	"artfeed/internal/observability"
	"artfeed/internal/seed"

	"go.uber.org/zap"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	postsPerUser := flag.Int("posts", 5, "Number of posts per user")
	maxDays := flag.Int("days", 90, "Spread post dates over this many past days")
	clean := flag.Bool("clean", false, "Delete existing users and content before seeding")
	fast := flag.Bool("fast", false, "Store the demo password unhashed (logins will fail)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		observability.Logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if cfg.IsProduction() {
		observability.Logger.Fatal("refusing to seed a production database")
	}
	if _, err := bootstrap.InitObservability(cfg, "artfeed-seed"); err != nil {
		observability.Logger.Fatal("failed to initialize observability", zap.Error(err))
	}
	log := observability.Logger

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	opts := seed.Options{
		NumUsers:     *numUsers,
		PostsPerUser: *postsPerUser,
		MaxDays:      *maxDays,
		SkipBcrypt:   *fast,
		Clean:        *clean,
	}
	if err := seed.Seed(context.Background(), db, opts); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}

	log.Info("seeded users share one password", zap.String("password", seed.DefaultPassword))
}

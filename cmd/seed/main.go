// Command main fills the database with demo accounts and posts.
package main

import (
	"context"
	"flag"
	"log"

	"fitcraft/internal/bootstrap"
	"fitcraft/internal/config"
	"fitcraft/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	postsPerUser := flag.Int("posts-per-user", 5, "Maximum posts per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build records without writing them")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Hash the shared password at minimum cost")
	maxDays := flag.Int("max-days", 30, "Spread post timestamps over this many days")
	randomSeed := flag.Int64("seed", 0, "Random seed (0 uses the clock)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, up to %d posts each, clean=%v dry-run=%v\n", *numUsers, *postsPerUser, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	s := seed.NewSeeder(rt.DB, rt.Blobs, seed.Options{
		NumUsers:     *numUsers,
		PostsPerUser: *postsPerUser,
		ShouldClean:  *shouldClean,
		SkipBcrypt:   *skipBcrypt,
		DryRun:       *dryRun,
		MaxDays:      *maxDays,
		RandomSeed:   *randomSeed,
	})

	res, err := s.Run(ctx)
	if err != nil {
		rt.Close(ctx)
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! Created %d users and %d posts.", len(res.Users), len(res.Posts))
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}

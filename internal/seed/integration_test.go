//go:build integration

package seed

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"

	"fitcraft/internal/config"
	"fitcraft/internal/database"
	"fitcraft/internal/models"
	"fitcraft/internal/storage"
)

func parseDatabaseURLToConfig(dsn string) (*config.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	password := ""
	if u.User != nil {
		password, _ = u.User.Password()
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	cfg := &config.Config{
		DBDriver:     "postgres",
		DBHost:       u.Hostname(),
		DBPort:       port,
		DBUser:       u.User.Username(),
		DBPassword:   password,
		DBName:       strings.TrimPrefix(u.Path, "/"),
		DBSSLMode:    "disable",
		Env:          "test",
		DBSchemaMode: "sql",
	}
	return cfg, nil
}

func TestIntegration_SeedPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration seed test")
	}
	cfg, err := parseDatabaseURLToConfig(dsn)
	if err != nil {
		t.Fatalf("failed parse dsn: %v", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}

	s := NewSeeder(db, storage.NewLocalStore(t.TempDir(), ""), Options{
		NumUsers:     10,
		PostsPerUser: 3,
		ShouldClean:  true,
		SkipBcrypt:   true,
		MaxDays:      30,
	})
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var cnt int64
	if err := db.Model(&models.Post{}).Count(&cnt).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if cnt == 0 {
		t.Fatalf("expected seeded posts, got 0")
	}
}

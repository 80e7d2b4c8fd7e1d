// Package main provides account management utilities for FitCraft.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"fitcraft/internal/cache"
	"fitcraft/internal/config"
	"fitcraft/internal/database"
	"fitcraft/internal/models"
	"fitcraft/internal/session"

	"gorm.io/gorm"
)

var errUserNotFound = errors.New("user not found")

// sessionRevoker ends every session of a user.
type sessionRevoker interface {
	DestroyAll(ctx context.Context, userID uint) (int, error)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  go run ./cmd/admin activate <user_id>     - Allow a user to log in")
	fmt.Fprintln(w, "  go run ./cmd/admin deactivate <user_id>   - Block a user from logging in and end their sessions")
	fmt.Fprintln(w, "  go run ./cmd/admin list-inactive          - List deactivated users")
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := cache.InitRedis(cfg.RedisURL); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	sessions := session.NewRedisStore(cache.GetClient(), cfg.SessionSecret, time.Duration(cfg.SessionTTLHours)*time.Hour)

	if err := run(context.Background(), db, sessions, os.Args[1:], os.Stdout); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, db *gorm.DB, sessions sessionRevoker, args []string, out io.Writer) error {
	switch args[0] {
	case "activate", "deactivate":
		if len(args) < 2 {
			return fmt.Errorf("usage: go run ./cmd/admin %s <user_id>", args[0])
		}
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid user id %q", args[1])
		}
		user, changed, err := setActive(ctx, db, uint(id), args[0] == "activate")
		if err != nil {
			return err
		}
		state := "inactive"
		if user.IsActive {
			state = "active"
		}
		if changed {
			fmt.Fprintf(out, "User %s (ID: %d) is now %s\n", user.Username, user.ID, state)
		} else {
			fmt.Fprintf(out, "User %s (ID: %d) is already %s\n", user.Username, user.ID, state)
		}
		if user.IsActive {
			return nil
		}
		// Sessions issued before the flag flipped would otherwise stay valid until they expire.
		revoked, err := sessions.DestroyAll(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		fmt.Fprintf(out, "Revoked %d session(s)\n", revoked)
		return nil

	case "list-inactive":
		users, err := listInactive(ctx, db)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Fprintln(out, "No inactive users")
			return nil
		}
		fmt.Fprintln(out, "Inactive users:")
		for _, u := range users {
			fmt.Fprintf(out, "  ID: %d, Username: %s, Email: %s\n", u.ID, u.Username, u.Email)
		}
		return nil

	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// setActive reports whether the flag actually changed.
func setActive(ctx context.Context, db *gorm.DB, id uint, active bool) (*models.User, bool, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: %d", errUserNotFound, id)
		}
		return nil, false, fmt.Errorf("database error: %w", err)
	}

	if user.IsActive == active {
		return &user, false, nil
	}

	if err := db.WithContext(ctx).Model(&user).Update("is_active", active).Error; err != nil {
		return nil, false, fmt.Errorf("failed to update user: %w", err)
	}
	user.IsActive = active
	return &user, true, nil
}

func listInactive(ctx context.Context, db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.WithContext(ctx).Where("is_active = ?", false).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

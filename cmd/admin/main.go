// Package main provides admin management utilities for EV Circle.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"evcircle/internal/config"
	"evcircle/internal/database"
	"evcircle/internal/models"
	"evcircle/internal/service"
	"evcircle/internal/storage"
	"evcircle/internal/storage/open"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  evcircle-admin promote <user_id|email> [moderator|admin]  - Raise a user's role (default admin)")
	fmt.Println("  evcircle-admin demote <user_id|email>                     - Reset a user to USER")
	fmt.Println("  evcircle-admin ban <user_id|email> [reason]               - Ban an account")
	fmt.Println("  evcircle-admin unban <user_id|email>                      - Reactivate an account")
	fmt.Println("  evcircle-admin recount                                    - Rebuild derived counters")
	fmt.Println("  evcircle-admin migrate                                    - Apply the SQL schema")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, command string, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if command == "migrate" {
		return migrate(cfg)
	}

	store, err := open.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = store.Close(ctx) }()

	// Token revocation and realtime delivery are not needed here.
	svc := service.New(store, nil, cfg.JWTSecret)
	return dispatch(ctx, svc.Moderation, store, command, args)
}

func dispatch(ctx context.Context, mod *service.ModerationService, store storage.Storage, command string, args []string) error {
	if command == "recount" {
		if err := mod.Recount(ctx, service.SystemActor); err != nil {
			return fmt.Errorf("recount failed: %w", err)
		}
		fmt.Printf("✅ Counters recomputed on %s\n", store.Backend())
		return nil
	}

	if len(args) < 1 {
		usage()
		return fmt.Errorf("%s needs a user id or email", command)
	}
	user, err := resolveUser(ctx, store, args[0])
	if err != nil {
		return err
	}

	switch command {
	case "promote":
		role := models.RoleAdmin
		if len(args) > 1 {
			role = models.UserRole(strings.ToUpper(args[1]))
		}
		updated, err := mod.SetRole(ctx, service.SystemActor, user.ID, role)
		if err != nil {
			return fmt.Errorf("promote failed: %w", err)
		}
		fmt.Printf("✅ %s is now %s\n", updated.Email, updated.Role)
	case "demote":
		updated, err := mod.SetRole(ctx, service.SystemActor, user.ID, models.RoleUser)
		if err != nil {
			return fmt.Errorf("demote failed: %w", err)
		}
		fmt.Printf("✅ %s is now %s\n", updated.Email, updated.Role)
	case "ban":
		reason := strings.Join(args[1:], " ")
		updated, err := mod.SetStatus(ctx, service.SystemActor, user.ID, models.StatusBanned, reason)
		if err != nil {
			return fmt.Errorf("ban failed: %w", err)
		}
		fmt.Printf("✅ %s is now %s\n", updated.Email, updated.Status)
	case "unban":
		updated, err := mod.SetStatus(ctx, service.SystemActor, user.ID, models.StatusActive, "")
		if err != nil {
			return fmt.Errorf("unban failed: %w", err)
		}
		fmt.Printf("✅ %s is now %s\n", updated.Email, updated.Status)
	default:
		usage()
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}

// resolveUser accepts either a user id or an email address.
func resolveUser(ctx context.Context, store storage.Storage, ref string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if strings.Contains(ref, "@") {
		user, err = store.GetUserByEmail(ctx, storage.NormalizeEmail(ref))
	} else {
		user, err = store.GetUser(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", ref)
	}
	return user, nil
}

func migrate(cfg *config.Config) error {
	if cfg.StorageDriver != config.DriverPostgres && cfg.StorageDriver != config.DriverSQLite {
		return errors.New("migrate applies to the postgres and sqlite drivers only")
	}
	cfg.DBAutoMigrate = false
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("schema migrated")
	return nil
}

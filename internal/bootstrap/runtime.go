// Package bootstrap wires up the shared runtime pieces (database, cache,
// development fixtures) used by the server and the seeder commands.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"reliefhub/internal/cache"
	"reliefhub/internal/config"
	"reliefhub/internal/database"
	"reliefhub/internal/models"
	"reliefhub/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData populates a small demo data set when the database has
	// no users yet. Development convenience only.
	SeedDemoData bool
}

// InitRuntime connects to the database and Redis and optionally seeds demo
// data. The Redis client may be nil if the cache is unreachable; callers
// are expected to degrade gracefully.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if err := ensureDevAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	if opts.SeedDemoData {
		if err := seedIfEmpty(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, rdb, nil
}

// ensureDevAdmin guarantees a known admin login in development so a fresh
// checkout is usable without manual SQL.
func ensureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var admin models.User
	err := db.Where("role = ?", models.RoleAdmin).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(seed.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin = models.User{
		Name:     "Relief Admin",
		Email:    "admin@reliefhub.local",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Created development admin %s", admin.Email)
	return nil
}

// seedIfEmpty runs the default seeding profile against an empty database.
func seedIfEmpty(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role <> ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	opts := seed.DefaultOptions()
	opts.ShouldClean = false
	return seed.NewSeeder(db).Run(opts)
}

package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/strideapp/stride-server/internal/bootstrap"
	"github.com/strideapp/stride-server/internal/config"
	"github.com/strideapp/stride-server/internal/model"
	"github.com/strideapp/stride-server/internal/server"
	"github.com/strideapp/stride-server/pkg/database"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := bootstrap.SeedMilestones(db); err != nil {
		log.Fatalf("failed to seed milestone catalog: %v", err)
	}
	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedDevUser(db); err != nil {
			log.Fatalf("failed to seed dev user: %v", err)
		}
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, redisClient)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.UserStreak{},
		&model.ActivityLog{},
		&model.Milestone{},
		&model.MilestoneProgress{},
		&model.Notification{},
	)
}

// connectRedis returns nil when Redis is not configured or not
// reachable; the engine degrades to single-instance locking and
// uncached status reads.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("REDIS_URL not set, running without redis")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("invalid REDIS_URL, running without redis: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable, running without redis: %v", err)
		return nil
	}

	return client
}

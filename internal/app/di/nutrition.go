package di

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"calorie_backend/internal/config"
	foodadapters "calorie_backend/internal/feature/foodrecognition/adapters"
	"calorie_backend/internal/feature/foodrecognition/adapters/csvtable"
	"calorie_backend/internal/feature/foodrecognition/usecase"
	"calorie_backend/internal/platform/cache"
	"calorie_backend/internal/platform/db"
	platformredis "calorie_backend/internal/platform/redis"
)

// NutritionBackend is the nutrition repository chosen by NUTRITION_SOURCE.
type NutritionBackend struct {
	Repo usecase.NutritionRepository
	// Names lists every canonical name the repository knows, for startup checks.
	Names func(ctx context.Context) ([]string, error)
	Close func()
}

// NewCSVNutrition loads the in-memory table.
func NewCSVNutrition(path string, log *zap.Logger) (*NutritionBackend, error) {
	table, err := csvtable.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if dups := table.Duplicates(); len(dups) > 0 {
		log.Warn("duplicate nutrition rows ignored", zap.Strings("names", dups))
	}
	if missing := table.MissingColumns(); len(missing) > 0 {
		log.Warn("nutrition table has no column for some nutrients; values will be N/A",
			zap.Strings("columns", missing))
	}
	log.Info("nutrition table loaded", zap.String("path", path), zap.Int("rows", table.Len()))

	return &NutritionBackend{
		Repo: table,
		Names: func(context.Context) ([]string, error) {
			recs := table.All()
			names := make([]string, 0, len(recs))
			for _, r := range recs {
				names = append(names, r.CanonicalName)
			}
			return names, nil
		},
		Close: func() {},
	}, nil
}

// NewDBNutrition serves the table from SQL.
// If Redis is available, lookups go through a read-through cache. Otherwise the DB is used directly.
func NewDBNutrition(gdb *gorm.DB, rdb *redis.Client, ttl time.Duration) *NutritionBackend {
	repo := foodadapters.NewNutritionRepository(gdb)
	var served usecase.NutritionRepository = repo
	if rdb != nil {
		served = cache.NewCachingNutritionRepository(rdb, ttl, repo, "nutrition")
	}
	return &NutritionBackend{
		Repo:  served,
		Names: repo.ListCanonicalNames,
		Close: func() {},
	}
}

// NewNutrition builds the backend for cfg.Nutrition.Source.
// csvPath is the resolved local path of the CSV.
func NewNutrition(ctx context.Context, cfg *config.Config, csvPath string, log *zap.Logger) (*NutritionBackend, error) {
	if cfg.Nutrition.Source != config.SourceDB {
		return NewCSVNutrition(csvPath, log)
	}

	gdb, err := db.OpenDB(cfg.DB)
	if err != nil {
		return nil, err
	}

	rdb := OpenRedis(ctx, cfg.Redis, log)
	b := NewDBNutrition(gdb, rdb, cfg.Nutrition.CacheTTL)
	b.Close = func() {
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.Error("failed to close Redis client", zap.Error(err))
			}
		}
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	log.Info("nutrition table served from database",
		zap.String("driver", cfg.DB.Driver),
		zap.Bool("cache", rdb != nil))
	return b, nil
}

// OpenRedis returns nil when Redis is not configured or unreachable.
func OpenRedis(ctx context.Context, cfg platformredis.Config, log *zap.Logger) *redis.Client {
	if !cfg.Enabled() {
		return nil
	}
	rdb, err := platformredis.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn("Redis unavailable. Running without cache.")
		return nil
	}
	return rdb
}

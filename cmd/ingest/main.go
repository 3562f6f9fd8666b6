package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"calorie_backend/internal/app/di"
	"calorie_backend/internal/config"
	foodadapters "calorie_backend/internal/feature/foodrecognition/adapters"
	"calorie_backend/internal/feature/foodrecognition/adapters/csvtable"
	"calorie_backend/internal/feature/foodrecognition/usecase"
	"calorie_backend/internal/platform/artifact"
	"calorie_backend/internal/platform/cache"
	"calorie_backend/internal/platform/db"
	"calorie_backend/internal/platform/logger"
)

// ingest はNUTRITION_CSVを読み込み、nutritionsテーブルへupsertします。
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dir := cfg.App.ArtifactDir
	if dir == "" {
		dir = os.TempDir()
	}
	csvPath, err := artifact.NewFetcher(cfg.S3, dir, log).Resolve(ctx, cfg.Nutrition.CSVPath)
	if err != nil {
		log.Fatal("failed to fetch nutrition table", zap.Error(err))
	}
	table, err := csvtable.LoadFile(csvPath)
	if err != nil {
		log.Fatal("failed to load nutrition table", zap.Error(err))
	}

	// スキーマは必ず作成する
	dbCfg := cfg.DB
	dbCfg.RunMigrations = true
	gdb, err := db.OpenDB(dbCfg)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}

	uc := usecase.NewIngestUsecase(table, foodadapters.NewNutritionRepository(gdb), log)
	n, err := uc.IngestAll(ctx)
	if err != nil {
		log.Fatal("ingest failed", zap.Error(err))
	}

	// 古いキャッシュを破棄
	if rdb := di.OpenRedis(ctx, cfg.Redis, log); rdb != nil {
		defer func() { _ = rdb.Close() }()
		names := make([]string, 0, table.Len())
		for _, r := range table.All() {
			names = append(names, r.CanonicalName)
		}
		c := cache.NewCachingNutritionRepository(rdb, cfg.Nutrition.CacheTTL, nil, "nutrition")
		if err := c.Invalidate(ctx, names...); err != nil {
			log.Warn("failed to invalidate nutrition cache", zap.Error(err))
		}
	}

	log.Info("ingest ok", zap.Int("rows", n))
}

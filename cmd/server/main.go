package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"calorie_backend/internal/app/di"
	"calorie_backend/internal/app/router"
	"calorie_backend/internal/config"
	"calorie_backend/internal/feature/foodrecognition/adapters/manifest"
	"calorie_backend/internal/feature/foodrecognition/transport/handler"
	"calorie_backend/internal/feature/foodrecognition/usecase"
	"calorie_backend/internal/platform/artifact"
	healthhandler "calorie_backend/internal/platform/http/handler"
	"calorie_backend/internal/platform/imaging"
	"calorie_backend/internal/platform/logger"
)

func main() {
	// .envは任意
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// アーティファクト（s3:// の場合はダウンロード）
	artifactDir := cfg.App.ArtifactDir
	if artifactDir == "" {
		artifactDir = os.TempDir()
	}
	fetcher := artifact.NewFetcher(cfg.S3, artifactDir, log)
	manifestPath := mustResolve(ctx, fetcher, cfg.Model.ManifestPath, log)
	csvPath := ""
	if cfg.Nutrition.Source == config.SourceCSV {
		csvPath = mustResolve(ctx, fetcher, cfg.Nutrition.CSVPath, log)
	}

	// クラスカタログと栄養表は必須
	catalog, err := manifest.LoadClassCatalog(manifestPath)
	if err != nil {
		log.Fatal("failed to load class catalog", zap.String("path", manifestPath), zap.Error(err))
	}
	log.Info("class catalog loaded", zap.Int("classes", catalog.Len()))

	nutrition, err := di.NewNutrition(ctx, cfg, csvPath, log)
	if err != nil {
		log.Fatal("failed to load nutrition table", zap.Error(err))
	}
	defer nutrition.Close()

	// モデルの読み込み失敗は致命的ではない
	var classifier *di.Classifier
	modelPath := cfg.Model.Path
	if cfg.Model.Backend == config.BackendONNX {
		modelPath, err = fetcher.Resolve(ctx, modelPath)
	}
	if err == nil {
		classifier, err = di.NewClassifier(ctx, cfg.Model, modelPath, catalog, log)
	}
	if err != nil {
		log.Warn("model not loaded; predictions will be rejected",
			zap.String("backend", cfg.Model.Backend),
			zap.String("path", cfg.Model.Path),
			zap.Error(err))
	} else {
		defer classifier.Close()
		log.Info("model loaded", zap.String("backend", cfg.Model.Backend))
	}

	names, err := nutrition.Names(ctx)
	if err != nil {
		log.Warn("failed to list nutrition names", zap.Error(err))
	}
	outputWidth := 0
	if classifier != nil {
		outputWidth = classifier.OutputWidth
	}
	di.CrossCheck(catalog, names, outputWidth, log)

	// Usecase
	predictor := usecase.NewPredictor(classifier.ScorerOrNil(), catalog)
	recognitionUC := usecase.NewRecognitionUsecase(
		imaging.NewPreprocessor(cfg.Model.ImageSize),
		predictor,
		nutrition.Repo,
		log,
	)

	// Handler
	foodH := handler.NewFoodHandler(recognitionUC, cfg.App.MaxUploadSize, log)

	// ルータ生成
	r := router.NewRouter(foodH, healthhandler.NewHealth(recognitionUC.Ready), router.Options{
		CORSEnabled:        cfg.Server.CORSEnabled,
		CORSOrigins:        cfg.Server.CORSOrigins,
		MaxMultipartMemory: cfg.App.MaxUploadSize,
		Log:                log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func mustResolve(ctx context.Context, f *artifact.Fetcher, path string, log *zap.Logger) string {
	local, err := f.Resolve(ctx, path)
	if err != nil {
		log.Fatal("failed to fetch artifact", zap.String("path", path), zap.Error(err))
	}
	return local
}

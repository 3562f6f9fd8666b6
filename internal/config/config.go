// Package config はviperを使って環境変数からアプリケーション設定を読み込みます。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"calorie_backend/internal/platform/artifact"
	"calorie_backend/internal/platform/db"
	"calorie_backend/internal/platform/redis"
)

const (
	BackendONNX   = "onnx"
	BackendVision = "vision"

	SourceCSV = "csv"
	SourceDB  = "db"
)

type Config struct {
	Server    ServerConfig
	Model     ModelConfig
	Nutrition NutritionConfig
	DB        db.Config
	Redis     redis.Config
	S3        artifact.S3Config
	App       AppConfig
}

type ServerConfig struct {
	Host        string
	Port        string
	CORSEnabled bool
	CORSOrigins []string
}

type ModelConfig struct {
	Backend                 string
	Path                    string
	LibraryPath             string
	ImageSize               int
	ManifestPath            string
	VisionRequestsPerMinute int
}

type NutritionConfig struct {
	Source   string
	CSVPath  string
	CacheTTL time.Duration
}

type AppConfig struct {
	LogLevel      string
	MaxUploadSize int64
	ArtifactDir   string
}

// Addr はHTTPサーバーの待ち受けアドレスを返します。
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("CORS_ENABLED", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("CLASSIFIER_BACKEND", BackendONNX)
	v.SetDefault("MODEL_PATH", "model/food101.onnx")
	v.SetDefault("ONNXRUNTIME_LIB", "")
	v.SetDefault("IMAGE_SIZE", 224)
	v.SetDefault("CLASS_MANIFEST_PATH", "data/train.txt")
	v.SetDefault("VISION_REQUESTS_PER_MINUTE", 60)
	v.SetDefault("NUTRITION_SOURCE", SourceCSV)
	v.SetDefault("NUTRITION_CSV", "data/nutrition.csv")
	v.SetDefault("NUTRITION_CACHE_TTL", "1h")
	v.SetDefault("DB_DRIVER", db.DriverMySQL)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_SQLITE_PATH", "nutrition.db")
	v.SetDefault("RUN_MIGRATIONS", false)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("AWS_REGION", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_UPLOAD_SIZE", 10*1024*1024) // 10MB
	v.SetDefault("ARTIFACT_DIR", "")
}

// Load は環境変数から設定を読み込み、値を検証します。
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("SERVER_HOST"),
			Port:        v.GetString("SERVER_PORT"),
			CORSEnabled: v.GetBool("CORS_ENABLED"),
			CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Model: ModelConfig{
			Backend:                 strings.ToLower(v.GetString("CLASSIFIER_BACKEND")),
			Path:                    v.GetString("MODEL_PATH"),
			LibraryPath:             v.GetString("ONNXRUNTIME_LIB"),
			ImageSize:               v.GetInt("IMAGE_SIZE"),
			ManifestPath:            v.GetString("CLASS_MANIFEST_PATH"),
			VisionRequestsPerMinute: v.GetInt("VISION_REQUESTS_PER_MINUTE"),
		},
		Nutrition: NutritionConfig{
			Source:   strings.ToLower(v.GetString("NUTRITION_SOURCE")),
			CSVPath:  v.GetString("NUTRITION_CSV"),
			CacheTTL: v.GetDuration("NUTRITION_CACHE_TTL"),
		},
		DB: db.Config{
			Driver:        strings.ToLower(v.GetString("DB_DRIVER")),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Name:          v.GetString("DB_NAME"),
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			InstanceName:  v.GetString("INSTANCE_CONNECTION_NAME"),
			SQLitePath:    v.GetString("DB_SQLITE_PATH"),
			RunMigrations: v.GetBool("RUN_MIGRATIONS"),
		},
		Redis: redis.Config{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		S3: artifact.S3Config{
			Region:   v.GetString("AWS_REGION"),
			Endpoint: v.GetString("S3_ENDPOINT"),
		},
		App: AppConfig{
			LogLevel:      v.GetString("LOG_LEVEL"),
			MaxUploadSize: v.GetInt64("MAX_UPLOAD_SIZE"),
			ArtifactDir:   v.GetString("ARTIFACT_DIR"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Model.Backend {
	case BackendONNX, BackendVision:
	default:
		return fmt.Errorf("unsupported CLASSIFIER_BACKEND %q", c.Model.Backend)
	}
	switch c.Nutrition.Source {
	case SourceCSV, SourceDB:
	default:
		return fmt.Errorf("unsupported NUTRITION_SOURCE %q", c.Nutrition.Source)
	}
	if c.Model.ImageSize <= 0 {
		return fmt.Errorf("IMAGE_SIZE must be positive, got %d", c.Model.ImageSize)
	}
	if c.App.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.App.MaxUploadSize)
	}
	if c.Model.ManifestPath == "" {
		return fmt.Errorf("CLASS_MANIFEST_PATH is required")
	}
	if c.Nutrition.Source == SourceCSV && c.Nutrition.CSVPath == "" {
		return fmt.Errorf("NUTRITION_CSV is required when NUTRITION_SOURCE=%s", SourceCSV)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

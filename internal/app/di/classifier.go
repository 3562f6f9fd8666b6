// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"calorie_backend/internal/config"
	"calorie_backend/internal/feature/foodrecognition/adapters/onnx"
	"calorie_backend/internal/feature/foodrecognition/adapters/vision"
	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
	"calorie_backend/internal/shared/ratelimiter"
)

// Classifier is a loaded scorer together with its cleanup.
// OutputWidth is 0 when the backend cannot report it up front.
type Classifier struct {
	Scorer      usecase.Scorer
	OutputWidth int
	Close       func()
}

// scorerOpeners are swapped in tests.
var (
	openONNX = func(cfg onnx.Config) (*onnx.Scorer, error) {
		return onnx.Open(cfg)
	}
	openVision = func(ctx context.Context, catalog entity.ClassCatalog, limiter ratelimiter.RateLimiterInterface) (*vision.VisionScorer, error) {
		return vision.NewVisionScorer(ctx, catalog, limiter)
	}
)

// NewClassifier opens the configured classifier backend.
// A load failure is returned to the caller, which keeps serving without a model.
func NewClassifier(ctx context.Context, cfg config.ModelConfig, modelPath string, catalog entity.ClassCatalog, log *zap.Logger) (*Classifier, error) {
	switch cfg.Backend {
	case config.BackendVision:
		limiter := ratelimiter.NewRateLimiter(cfg.VisionRequestsPerMinute, time.Minute, log)
		s, err := openVision(ctx, catalog, limiter)
		if err != nil {
			return nil, err
		}
		return &Classifier{
			Scorer:      s,
			OutputWidth: catalog.Len(),
			Close: func() {
				if err := s.Close(); err != nil {
					log.Warn("failed to close vision client", zap.Error(err))
				}
			},
		}, nil
	case config.BackendONNX, "":
		s, err := openONNX(onnx.Config{
			ModelPath:   modelPath,
			LibraryPath: cfg.LibraryPath,
			ImageSize:   cfg.ImageSize,
		})
		if err != nil {
			return nil, err
		}
		return &Classifier{Scorer: s, OutputWidth: s.OutputWidth(), Close: s.Close}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported classifier backend %q", usecase.ErrConfiguration, cfg.Backend)
	}
}

// ScorerOrNil returns the scorer as an interface value that is nil when c is nil.
func (c *Classifier) ScorerOrNil() usecase.Scorer {
	if c == nil {
		return nil
	}
	return c.Scorer
}

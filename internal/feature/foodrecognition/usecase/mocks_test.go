package usecase_test

import (
	"context"
	"errors"
	"io"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
)

// mockScorer はScorerインターフェースのモック実装です。
type mockScorer struct {
	ScoresFunc  func(ctx context.Context, batch entity.ImageBatch) ([]float32, error)
	ScoresCalls int
}

func (m *mockScorer) Scores(ctx context.Context, batch entity.ImageBatch) ([]float32, error) {
	m.ScoresCalls++
	if m.ScoresFunc != nil {
		return m.ScoresFunc(ctx, batch)
	}
	return nil, errors.New("ScoresFunc is not implemented")
}

// mockPreprocessor はImagePreprocessorインターフェースのモック実装です。
type mockPreprocessor struct {
	ValidateErr    error
	TransformErr   error
	ValidateCalls  int
	TransformCalls int
}

func (m *mockPreprocessor) Validate(r io.ReadSeeker) error {
	m.ValidateCalls++
	return m.ValidateErr
}

func (m *mockPreprocessor) Transform(r io.Reader) (entity.ImageBatch, error) {
	m.TransformCalls++
	if m.TransformErr != nil {
		return entity.ImageBatch{}, m.TransformErr
	}
	return entity.ImageBatch{Data: make([]float32, 2*2*3), Height: 2, Width: 2, Channels: 3}, nil
}

// mockNutritionRepository はNutritionRepositoryインターフェースのモック実装です。
type mockNutritionRepository struct {
	FindFunc func(ctx context.Context, canonicalName string) (*entity.NutritionRecord, error)
}

func (m *mockNutritionRepository) FindByCanonicalName(ctx context.Context, canonicalName string) (*entity.NutritionRecord, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, canonicalName)
	}
	return nil, errors.New("FindFunc is not implemented")
}

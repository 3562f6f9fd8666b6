package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
)

type staticSource []entity.NutritionRecord

func (s staticSource) All() []entity.NutritionRecord { return s }

// mockNutritionStore はNutritionStoreインターフェースのモック実装です。
type mockNutritionStore struct {
	batches [][]entity.NutritionRecord
	failAt  int // 1始まり。0なら失敗しない
}

func (m *mockNutritionStore) UpsertBatch(ctx context.Context, records []entity.NutritionRecord) error {
	if m.failAt > 0 && len(m.batches)+1 == m.failAt {
		return errors.New("db down")
	}
	m.batches = append(m.batches, records)
	return nil
}

func makeRecords(n int) staticSource {
	out := make(staticSource, 0, n)
	for i := range n {
		out = append(out, entity.UnknownNutrition(fmt.Sprintf("food_%d", i)))
	}
	return out
}

func TestIngestUsecase_IngestAll(t *testing.T) {
	ctx := context.Background()

	t.Run("success: splits into batches", func(t *testing.T) {
		store := &mockNutritionStore{}
		uc := usecase.NewIngestUsecase(makeRecords(450), store, nil)

		n, err := uc.IngestAll(ctx)

		require.NoError(t, err)
		assert.Equal(t, 450, n)
		require.Len(t, store.batches, 3)
		assert.Len(t, store.batches[0], 200)
		assert.Len(t, store.batches[2], 50)
	})

	t.Run("success: empty source", func(t *testing.T) {
		store := &mockNutritionStore{}
		uc := usecase.NewIngestUsecase(makeRecords(0), store, nil)

		n, err := uc.IngestAll(ctx)

		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, store.batches)
	})

	t.Run("error: store failure reports progress", func(t *testing.T) {
		store := &mockNutritionStore{failAt: 2}
		uc := usecase.NewIngestUsecase(makeRecords(300), store, nil)

		n, err := uc.IngestAll(ctx)

		require.Error(t, err)
		assert.Equal(t, 200, n)
		assert.Contains(t, err.Error(), "200-299")
	})
}

package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを準備します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&NutritionModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

func applePie() entity.NutritionRecord {
	return entity.NutritionRecord{
		CanonicalName: "apple_pie",
		Calories:      entity.KnownNutrient(237),
		Protein:       entity.KnownNutrient(1.9),
		Fat:           entity.KnownNutrient(11),
		Carbohydrates: entity.KnownNutrient(34),
	}
}

// TestNewNutritionRepository はコンストラクタが正しくインスタンスを生成することを検証します。
func TestNewNutritionRepository(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewNutritionRepository(db)

	assert.NotNil(t, repo)
	assert.NotNil(t, repo.db)
}

func TestNutritionMySQL_FindByCanonicalName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		seed        []entity.NutritionRecord
		key         string
		expected    *entity.NutritionRecord
		expectedErr error
	}{
		{
			name:     "success: known food",
			seed:     []entity.NutritionRecord{applePie()},
			key:      "apple_pie",
			expected: func() *entity.NutritionRecord { r := applePie(); return &r }(),
		},
		{
			name: "success: unknown values stored as NULL",
			seed: []entity.NutritionRecord{entity.UnknownNutrition("sushi")},
			key:  "sushi",
			expected: func() *entity.NutritionRecord {
				r := entity.UnknownNutrition("sushi")
				return &r
			}(),
		},
		{
			name:        "error: not found",
			seed:        []entity.NutritionRecord{applePie()},
			key:         "ramen",
			expectedErr: usecase.ErrNutritionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := NewNutritionRepository(setupTestDB(t))
			require.NoError(t, repo.UpsertBatch(context.Background(), tt.seed))

			got, err := repo.FindByCanonicalName(context.Background(), tt.key)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNutritionMySQL_UpsertBatch_UpdatesExisting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewNutritionRepository(setupTestDB(t))

	require.NoError(t, repo.UpsertBatch(ctx, []entity.NutritionRecord{applePie(), entity.UnknownNutrition("sushi")}))

	updated := applePie()
	updated.Calories = entity.KnownNutrient(300)
	require.NoError(t, repo.UpsertBatch(ctx, []entity.NutritionRecord{updated}))

	got, err := repo.FindByCanonicalName(ctx, "apple_pie")
	require.NoError(t, err)
	assert.Equal(t, "300", got.Calories.String())

	names, err := repo.ListCanonicalNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple_pie", "sushi"}, names)
}

func TestNutritionMySQL_UpsertBatch_Empty(t *testing.T) {
	t.Parallel()

	repo := NewNutritionRepository(setupTestDB(t))
	assert.NoError(t, repo.UpsertBatch(context.Background(), nil))
}

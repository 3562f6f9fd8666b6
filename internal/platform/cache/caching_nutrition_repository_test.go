package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
)

// mockNutritionRepository はテスト用のNutritionRepositoryモック実装です。
type mockNutritionRepository struct {
	findFn func(ctx context.Context, name string) (*entity.NutritionRecord, error)
	calls  int
}

func (m *mockNutritionRepository) FindByCanonicalName(ctx context.Context, name string) (*entity.NutritionRecord, error) {
	m.calls++
	if m.findFn != nil {
		return m.findFn(ctx, name)
	}
	return nil, usecase.ErrNutritionNotFound
}

func sushiRecord() *entity.NutritionRecord {
	return &entity.NutritionRecord{
		CanonicalName: "sushi",
		Calories:      entity.KnownNutrient(150),
		Protein:       entity.KnownNutrient(6),
		Fat:           entity.UnknownNutrient(),
		Carbohydrates: entity.KnownNutrient(30.5),
	}
}

func sushiJSON(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(toCache(sushiRecord()))
	require.NoError(t, err)
	return b
}

// TestNewCachingNutritionRepository_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingNutritionRepository_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{"default values when zero/empty", 0, "", time.Hour, "nutrition"},
		{"negative ttl uses default", -time.Minute, "", time.Hour, "nutrition"},
		{"custom values preserved", 10 * time.Minute, "custom", 10 * time.Minute, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := NewCachingNutritionRepository(nil, tt.ttl, &mockNutritionRepository{}, tt.namespace)

			assert.Equal(t, tt.expectedTTL, repo.ttl)
			assert.Equal(t, tt.expectedNamespace, repo.namespace)
		})
	}
}

// TestCachingNutritionRepository_NilRedis はRedisがnilの場合にキャッシュをバイパスすることを検証します。
func TestCachingNutritionRepository_NilRedis(t *testing.T) {
	t.Parallel()

	inner := &mockNutritionRepository{
		findFn: func(ctx context.Context, name string) (*entity.NutritionRecord, error) {
			return sushiRecord(), nil
		},
	}
	repo := NewCachingNutritionRepository(nil, time.Minute, inner, "")

	rec, err := repo.FindByCanonicalName(context.Background(), "sushi")

	require.NoError(t, err)
	assert.Equal(t, sushiRecord(), rec)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, repo.Invalidate(context.Background(), "sushi"))
}

// TestCachingNutritionRepository_CacheHit はキャッシュヒット時に内部リポジトリを呼ばないことを検証します。
func TestCachingNutritionRepository_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("nutrition:sushi").SetVal(string(sushiJSON(t)))

	inner := &mockNutritionRepository{}
	repo := NewCachingNutritionRepository(rdb, time.Hour, inner, "nutrition")

	rec, err := repo.FindByCanonicalName(context.Background(), "sushi")

	require.NoError(t, err)
	assert.Equal(t, sushiRecord(), rec)
	assert.False(t, rec.Fat.Known, "unknown values must survive the cache round trip")
	assert.Zero(t, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingNutritionRepository_CacheMiss はキャッシュミス時に内部から取得してキャッシュへ保存することを検証します。
func TestCachingNutritionRepository_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("nutrition:sushi").RedisNil()
	mock.ExpectSet("nutrition:sushi", sushiJSON(t), time.Hour).SetVal("OK")

	inner := &mockNutritionRepository{
		findFn: func(ctx context.Context, name string) (*entity.NutritionRecord, error) {
			return sushiRecord(), nil
		},
	}
	repo := NewCachingNutritionRepository(rdb, time.Hour, inner, "nutrition")

	rec, err := repo.FindByCanonicalName(context.Background(), "sushi")

	require.NoError(t, err)
	assert.Equal(t, "sushi", rec.CanonicalName)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingNutritionRepository_NotFoundIsNotCached は未登録の名前がキャッシュされないことを検証します。
func TestCachingNutritionRepository_NotFoundIsNotCached(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("nutrition:pho").RedisNil()

	repo := NewCachingNutritionRepository(rdb, time.Hour, &mockNutritionRepository{}, "nutrition")

	_, err := repo.FindByCanonicalName(context.Background(), "pho")

	assert.ErrorIs(t, err, usecase.ErrNutritionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingNutritionRepository_InnerError は内部リポジトリのエラーが伝播されることを検証します。
func TestCachingNutritionRepository_InnerError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	expectedErr := errors.New("database error")
	mock.ExpectGet("nutrition:sushi").RedisNil()

	inner := &mockNutritionRepository{
		findFn: func(ctx context.Context, name string) (*entity.NutritionRecord, error) {
			return nil, expectedErr
		},
	}
	repo := NewCachingNutritionRepository(rdb, time.Hour, inner, "nutrition")

	_, err := repo.FindByCanonicalName(context.Background(), "sushi")

	assert.ErrorIs(t, err, expectedErr)
}

// TestCachingNutritionRepository_CorruptedCache は破損したキャッシュを削除して内部にフォールバックすることを検証します。
func TestCachingNutritionRepository_CorruptedCache(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("nutrition:sushi").SetVal("invalid json")
	mock.ExpectDel("nutrition:sushi").SetVal(1)
	mock.ExpectSet("nutrition:sushi", sushiJSON(t), time.Hour).SetVal("OK")

	inner := &mockNutritionRepository{
		findFn: func(ctx context.Context, name string) (*entity.NutritionRecord, error) {
			return sushiRecord(), nil
		},
	}
	repo := NewCachingNutritionRepository(rdb, time.Hour, inner, "nutrition")

	rec, err := repo.FindByCanonicalName(context.Background(), "sushi")

	require.NoError(t, err)
	assert.Equal(t, sushiRecord(), rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingNutritionRepository_Invalidate は指定した名前のキーが削除されることを検証します。
func TestCachingNutritionRepository_Invalidate(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectDel("nutrition:sushi", "nutrition:apple_pie").SetVal(2)

	repo := NewCachingNutritionRepository(rdb, time.Hour, &mockNutritionRepository{}, "nutrition")

	require.NoError(t, repo.Invalidate(context.Background(), "sushi", "apple pie"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestSafe はsafe関数がRedisキーで問題となる文字を正しくエスケープすることを検証します。
func TestSafe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"sushi", "sushi"},
		{"apple pie", "apple_pie"},
		{"key:value", "key_value"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, safe(tt.input))
		})
	}
}

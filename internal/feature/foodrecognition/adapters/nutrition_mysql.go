// Package adapters はfoodrecognitionフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
)

// nutritionMySQL はNutritionRepositoryとNutritionStoreのSQL実装です。
// GORMを使用するため、MySQL・PostgreSQL・SQLiteのいずれでも動作します。
type nutritionMySQL struct {
	db *gorm.DB
}

// nutritionMySQLがusecaseのインターフェースを実装していることをコンパイル時に検証します。
var (
	_ usecase.NutritionRepository = (*nutritionMySQL)(nil)
	_ usecase.NutritionStore      = (*nutritionMySQL)(nil)
)

// NewNutritionRepository は指定されたDB接続でnutritionMySQLの新しいインスタンスを生成します。
func NewNutritionRepository(db *gorm.DB) *nutritionMySQL {
	return &nutritionMySQL{db: db}
}

// FindByCanonicalName は正規化済みの名前で栄養情報を取得します。
// 存在しない場合、usecase.ErrNutritionNotFoundを返します。
func (r *nutritionMySQL) FindByCanonicalName(ctx context.Context, canonicalName string) (*entity.NutritionRecord, error) {
	var m NutritionModel
	if err := r.db.WithContext(ctx).Where("canonical_name = ?", canonicalName).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrNutritionNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// ListCanonicalNames は登録済みの名前を昇順で返します。
func (r *nutritionMySQL) ListCanonicalNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&NutritionModel{}).
		Order("canonical_name ASC").
		Pluck("canonical_name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// UpsertBatch は栄養情報を一括で挿入し、既存の名前は値を更新します。
func (r *nutritionMySQL) UpsertBatch(ctx context.Context, records []entity.NutritionRecord) error {
	if len(records) == 0 {
		return nil
	}
	ms := make([]NutritionModel, 0, len(records))
	for _, rec := range records {
		ms = append(ms, NutritionModelFromEntity(rec))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "canonical_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"calories", "protein", "fat", "carbohydrates", "updated_at"}),
	}).Create(&ms).Error
}

package adapters

import (
	"time"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
)

// NutritionModel はnutritionsテーブルのGORMモデルです。
// 不明な栄養値はNULLとして保存します。
type NutritionModel struct {
	ID            uint      `gorm:"primaryKey"`
	CanonicalName string    `gorm:"size:191;not null;uniqueIndex"`
	Calories      *float64
	Protein       *float64
	Fat           *float64
	Carbohydrates *float64
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName はGORMが使用するテーブル名を返します。
func (NutritionModel) TableName() string {
	return "nutritions"
}

// ToEntity はGORMモデルをドメインエンティティに変換します。
func (m *NutritionModel) ToEntity() *entity.NutritionRecord {
	return &entity.NutritionRecord{
		CanonicalName: m.CanonicalName,
		Calories:      fromNullable(m.Calories),
		Protein:       fromNullable(m.Protein),
		Fat:           fromNullable(m.Fat),
		Carbohydrates: fromNullable(m.Carbohydrates),
	}
}

// NutritionModelFromEntity はドメインエンティティをGORMモデルに変換します。
func NutritionModelFromEntity(r entity.NutritionRecord) NutritionModel {
	return NutritionModel{
		CanonicalName: r.CanonicalName,
		Calories:      r.Calories.Float(),
		Protein:       r.Protein.Float(),
		Fat:           r.Fat.Float(),
		Carbohydrates: r.Carbohydrates.Float(),
	}
}

func fromNullable(v *float64) entity.Nutrient {
	if v == nil {
		return entity.UnknownNutrient()
	}
	return entity.KnownNutrient(*v)
}

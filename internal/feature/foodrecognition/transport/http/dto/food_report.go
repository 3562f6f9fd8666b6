package dto

import "calorie_backend/internal/feature/foodrecognition/domain/entity"

// NutritionResponse は栄養情報のレスポンスDTOです。不明な値はnullになります。
type NutritionResponse struct {
	Calories      *float64 `json:"calories"`      // kcal
	Protein       *float64 `json:"protein"`       // g
	Fat           *float64 `json:"fat"`           // g
	Carbohydrates *float64 `json:"carbohydrates"` // g
}

// FoodReportResponse は食品認識結果のレスポンスDTOです。
type FoodReportResponse struct {
	FoodItem       string            `json:"food_item"`       // 表示名
	PredictedClass string            `json:"predicted_class"` // カタログ上のラベル
	ClassIndex     int               `json:"class_index"`
	Score          float32           `json:"score"`
	Nutrition      NutritionResponse `json:"nutrition"`
}

// ErrorResponse はエラー時のレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromFoodReport はエンティティをレスポンスDTOに変換します。
func FromFoodReport(r *entity.FoodReport) FoodReportResponse {
	return FoodReportResponse{
		FoodItem:       r.DisplayName,
		PredictedClass: string(r.Prediction.Label),
		ClassIndex:     r.Prediction.ClassIndex,
		Score:          r.Prediction.Score,
		Nutrition: NutritionResponse{
			Calories:      r.Nutrition.Calories.Float(),
			Protein:       r.Nutrition.Protein.Float(),
			Fat:           r.Nutrition.Fat.Float(),
			Carbohydrates: r.Nutrition.Carbohydrates.Float(),
		},
	}
}

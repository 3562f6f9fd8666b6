package entity

// ImageBatch はモデル入力となる前処理済み画像です。
// レイアウトはNHWC（バッチサイズ1）で、各値は0.0〜1.0の範囲です。
type ImageBatch struct {
	Data     []float32
	Height   int
	Width    int
	Channels int
}

// Shape はバッチを含むテンソル形状 (1, H, W, C) を返します。
func (b ImageBatch) Shape() []int64 {
	return []int64{1, int64(b.Height), int64(b.Width), int64(b.Channels)}
}

// Prediction は1リクエスト分の推論結果です。
type Prediction struct {
	ClassIndex int
	Label      ClassLabel
	Score      float32
}

// FoodReport はレスポンスとして返す認識結果と栄養情報です。
type FoodReport struct {
	Prediction  Prediction
	DisplayName string // 表示名（例: "Apple Pie"）
	Nutrition   NutritionRecord
}

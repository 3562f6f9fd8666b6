package usecase

import (
	"context"
	"fmt"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
)

// Scorer は前処理済みバッチから全クラスのスコアを計算する推論エンジンです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Scorer interface {
	// Scores はカタログと同じ順序のスコアベクトルを返します。
	Scores(ctx context.Context, batch entity.ImageBatch) ([]float32, error)
}

// Predictor はScorerの出力をカタログのラベルに対応付けます。
type Predictor struct {
	scorer  Scorer
	catalog entity.ClassCatalog
}

// NewPredictor はPredictorを生成します。scorerがnilの場合、モデル未ロードとして扱います。
func NewPredictor(scorer Scorer, catalog entity.ClassCatalog) *Predictor {
	return &Predictor{scorer: scorer, catalog: catalog}
}

// Ready はモデルがロード済みかどうかを返します。
func (p *Predictor) Ready() bool {
	return p != nil && p.scorer != nil
}

// Catalog は推論に使うクラスカタログを返します。
func (p *Predictor) Catalog() entity.ClassCatalog {
	return p.catalog
}

// Predict はスコアの最大値（同値の場合は最小インデックス）を選び、ラベルに変換します。
func (p *Predictor) Predict(ctx context.Context, batch entity.ImageBatch) (entity.Prediction, error) {
	if !p.Ready() {
		return entity.Prediction{}, ErrModelNotLoaded
	}

	scores, err := p.scorer.Scores(ctx, batch)
	if err != nil {
		return entity.Prediction{}, fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(scores) == 0 {
		return entity.Prediction{}, fmt.Errorf("%w: empty score vector", ErrInference)
	}

	idx := ArgMax(scores)
	label, ok := p.catalog.Label(idx)
	if !ok {
		return entity.Prediction{}, fmt.Errorf("%w: index %d, %d known classes", ErrIndexOutOfRange, idx, p.catalog.Len())
	}

	return entity.Prediction{ClassIndex: idx, Label: label, Score: scores[idx]}, nil
}

// ArgMax は最初に現れる最大値のインデックスを返します。空の場合は-1です。
func ArgMax(scores []float32) int {
	if len(scores) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/shared/foodname"
)

// ImagePreprocessor はアップロード画像の検証とモデル入力への変換を行います。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ImagePreprocessor interface {
	// Validate は画像としてデコードできるか確認し、読み取り位置を先頭に戻します。
	Validate(r io.ReadSeeker) error
	// Transform は画像をモデル入力形状のバッチに変換します。
	Transform(r io.Reader) (entity.ImageBatch, error)
}

// NutritionRepository は正規化済み食品名から栄養情報を取得するリポジトリです。
type NutritionRepository interface {
	// FindByCanonicalName は一致するレコードを返します。存在しない場合はErrNutritionNotFoundを返します。
	FindByCanonicalName(ctx context.Context, canonicalName string) (*entity.NutritionRecord, error)
}

// RecognitionUsecase は 検証 → 前処理 → 推論 → 栄養情報の結合 を順に実行します。
type RecognitionUsecase struct {
	preprocessor ImagePreprocessor
	predictor    *Predictor
	nutrition    NutritionRepository
	log          *zap.Logger
}

// NewRecognitionUsecase はRecognitionUsecaseの新しいインスタンスを生成します。
func NewRecognitionUsecase(pre ImagePreprocessor, predictor *Predictor, nutrition NutritionRepository, log *zap.Logger) *RecognitionUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecognitionUsecase{
		preprocessor: pre,
		predictor:    predictor,
		nutrition:    nutrition,
		log:          log,
	}
}

// Ready はモデルがロード済みで推論可能かどうかを返します。
func (u *RecognitionUsecase) Ready() bool {
	return u.predictor.Ready()
}

// Recognize はアップロード画像から食品を認識し、栄養情報を付与したレポートを返します。
// 返すエラーは errors.go のセンチネルエラーのいずれかをラップしています。
func (u *RecognitionUsecase) Recognize(ctx context.Context, upload io.ReadSeeker) (*entity.FoodReport, error) {
	if !u.Ready() {
		return nil, ErrModelNotLoaded
	}

	if err := u.preprocessor.Validate(upload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	batch, err := u.preprocessor.Transform(upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreprocess, err)
	}

	prediction, err := u.predictor.Predict(ctx, batch)
	if err != nil {
		return nil, err
	}

	canonical := foodname.Canonicalize(string(prediction.Label))
	return &entity.FoodReport{
		Prediction:  prediction,
		DisplayName: foodname.DisplayName(canonical),
		Nutrition:   u.LookupNutrition(ctx, canonical),
	}, nil
}

// LookupNutrition は正規化済みの名前で栄養情報を取得します。
// 一致する行がない場合はエラーにせず、すべての値が不明なレコードを返します。
func (u *RecognitionUsecase) LookupNutrition(ctx context.Context, canonicalName string) entity.NutritionRecord {
	rec, err := u.nutrition.FindByCanonicalName(ctx, canonicalName)
	if err != nil {
		if !errors.Is(err, ErrNutritionNotFound) {
			u.log.Warn("nutrition lookup failed", zap.String("food", canonicalName), zap.Error(err))
		}
		return entity.UnknownNutrition(canonicalName)
	}
	return *rec
}

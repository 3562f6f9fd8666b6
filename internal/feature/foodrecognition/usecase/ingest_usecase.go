package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
)

const (
	ingestBatchSize = 200 // 1回のUPSERTで書き込む件数
)

// NutritionSource は取り込み元の栄養テーブル（CSVなど）を抽象化します。
type NutritionSource interface {
	All() []entity.NutritionRecord
}

// NutritionStore は栄養情報を永続化するリポジトリのインターフェイスです。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type NutritionStore interface {
	UpsertBatch(ctx context.Context, records []entity.NutritionRecord) error
}

// IngestUsecase は栄養テーブルを読み込み、データベースに永続化するユースケースです。
type IngestUsecase struct {
	source NutritionSource
	store  NutritionStore
	log    *zap.Logger
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(source NutritionSource, store NutritionStore, log *zap.Logger) *IngestUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestUsecase{source: source, store: store, log: log}
}

// IngestAll はすべてのレコードをバッチ単位でUPSERTし、書き込んだ件数を返します。
// 途中でエラーが発生した場合はそれまでの件数とエラーを返します。
func (iu *IngestUsecase) IngestAll(ctx context.Context) (int, error) {
	records := iu.source.All()
	written := 0
	for start := 0; start < len(records); start += ingestBatchSize {
		end := min(start+ingestBatchSize, len(records))
		if err := iu.store.UpsertBatch(ctx, records[start:end]); err != nil {
			return written, fmt.Errorf("upsert nutrition rows %d-%d: %w", start, end-1, err)
		}
		written += end - start
		iu.log.Info("nutrition batch ingested", zap.Int("from", start), zap.Int("to", end-1))
	}
	return written, nil
}

// Package vision はGoogle Cloud Vision APIのラベル検出を使ったScorerを提供します。
package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/status"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
	"calorie_backend/internal/platform/imaging"
	"calorie_backend/internal/shared/foodname"
	"calorie_backend/internal/shared/ratelimiter"
)

const (
	// DefaultMaxResults は1リクエストで取得するラベル数です。
	DefaultMaxResults = 50
	jpegQuality       = 90
)

// ErrNoCatalogMatch は検出ラベルがカタログのどのクラスにも一致しなかった場合に返されます。
var ErrNoCatalogMatch = errors.New("no detected label matches the class catalog")

// labelAnnotator は*gvision.ImageAnnotatorClientのうち、Scorerが使うメソッドです。
type labelAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// VisionScorer は前処理済み画像をVision APIに送り、カタログ順のスコアベクトルを組み立てます。
type VisionScorer struct {
	client  labelAnnotator
	closer  func() error
	index   map[string]int
	width   int
	limiter ratelimiter.RateLimiterInterface
}

// VisionScorerがScorerを実装していることをコンパイル時に検証します。
var _ usecase.Scorer = (*VisionScorer)(nil)

// NewVisionScorer はADCを使用してVisionScorerの新しいインスタンスを生成します。
func NewVisionScorer(ctx context.Context, catalog entity.ClassCatalog, limiter ratelimiter.RateLimiterInterface) (*VisionScorer, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	s := newVisionScorer(client, catalog, limiter)
	s.closer = client.Close
	return s, nil
}

func newVisionScorer(client labelAnnotator, catalog entity.ClassCatalog, limiter ratelimiter.RateLimiterInterface) *VisionScorer {
	index := make(map[string]int, catalog.Len())
	for i, l := range catalog {
		key := foodname.Canonicalize(string(l))
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}
	return &VisionScorer{client: client, index: index, width: catalog.Len(), limiter: limiter}
}

// Close はVision APIクライアントを解放します。
func (v *VisionScorer) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer()
}

// Scores はバッチをJPEGに再エンコードしてラベル検出を行います。
// 各クラスのスコアは、正規化後の名前が一致したラベルの最大スコアです。
func (v *VisionScorer) Scores(ctx context.Context, batch entity.ImageBatch) ([]float32, error) {
	img, err := imaging.ToImage(batch)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode batch as jpeg: %w", err)
	}

	if v.limiter != nil {
		if err := v.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: buf.Bytes()},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: DefaultMaxResults},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision API request failed (%s): %w", status.Code(err), err)
	}
	if len(resp.Responses) == 0 {
		return nil, ErrNoCatalogMatch
	}
	if resp.Responses[0].Error != nil {
		return nil, fmt.Errorf("vision API error: %s", resp.Responses[0].Error.Message)
	}

	scores := make([]float32, v.width)
	matched := false
	for _, label := range resp.Responses[0].LabelAnnotations {
		i, ok := v.index[foodname.Canonicalize(label.Description)]
		if !ok {
			continue
		}
		matched = true
		if label.Score > scores[i] {
			scores[i] = label.Score
		}
	}
	if !matched {
		return nil, ErrNoCatalogMatch
	}
	return scores, nil
}

// Package onnx はONNX Runtimeで学習済み分類モデルを実行するScorerを提供します。
package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
)

// Config はONNXモデルの読み込み設定です。
type Config struct {
	ModelPath   string // モデルファイルのパス
	LibraryPath string // onnxruntime共有ライブラリのパス（空の場合は既定値）
	ImageSize   int    // 入力画像の一辺のピクセル数
}

// Scorer はONNX Runtimeのセッションを保持します。
// 入出力テンソルを共有するため、Runの呼び出しはミューテックスで直列化します。
type Scorer struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	channelFirst bool
	imageSize    int
	outputWidth  int
}

// ScorerがScorerインターフェースを実装していることをコンパイル時に検証します。
var _ usecase.Scorer = (*Scorer)(nil)

// Open はモデルを読み込み、推論可能なScorerを返します。
func Open(cfg Config) (*Scorer, error) {
	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, fmt.Errorf("unexpected model signature: %d inputs, %d outputs", len(inputs), len(outputs))
	}

	size := int64(cfg.ImageSize)
	inputShape, channelFirst, err := inputShapeFor(inputs[0].Dimensions, size)
	if err != nil {
		return nil, err
	}
	outputShape := concreteShape(outputs[0].Dimensions)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		_ = inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		_ = inputTensor.Destroy()
		_ = outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Scorer{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		channelFirst: channelFirst,
		imageSize:    cfg.ImageSize,
		outputWidth:  int(outputShape.FlattenedSize()),
	}, nil
}

// OutputWidth はモデルが出力するクラス数を返します。
func (s *Scorer) OutputWidth() int {
	return s.outputWidth
}

// Scores はバッチを入力テンソルにコピーして推論し、スコアのコピーを返します。
func (s *Scorer) Scores(ctx context.Context, batch entity.ImageBatch) ([]float32, error) {
	if batch.Height != s.imageSize || batch.Width != s.imageSize || batch.Channels != 3 {
		return nil, fmt.Errorf("batch shape %v does not match model input %dx%dx3", batch.Shape(), s.imageSize, s.imageSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.inputTensor.GetData()
	if s.channelFirst {
		toChannelFirst(dst, batch)
	} else {
		copy(dst, batch.Data)
	}

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := s.outputTensor.GetData()
	scores := make([]float32, len(out))
	copy(scores, out)
	return scores, nil
}

// Close はセッションとテンソルを解放します。
func (s *Scorer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputTensor != nil {
		_ = s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		_ = s.outputTensor.Destroy()
	}
	if s.session != nil {
		_ = s.session.Destroy()
	}
	_ = ort.DestroyEnvironment()
}

// inputShapeFor はモデルの入力形状を画像サイズで確定させます。
// (N,H,W,3) と (N,3,H,W) の両方を受け付けます。
func inputShapeFor(dims ort.Shape, size int64) (ort.Shape, bool, error) {
	if len(dims) != 4 {
		return nil, false, fmt.Errorf("model input must be rank 4, got %v", dims)
	}
	if dims[1] == 3 && dims[3] != 3 {
		return ort.NewShape(1, 3, size, size), true, nil
	}
	if dims[3] == 3 || dims[3] < 0 {
		return ort.NewShape(1, size, size, 3), false, nil
	}
	return nil, false, fmt.Errorf("model input %v is not an RGB image", dims)
}

// concreteShape は動的次元（-1）を1に置き換えます。
func concreteShape(dims ort.Shape) ort.Shape {
	out := make([]int64, len(dims))
	for i, d := range dims {
		if d < 1 {
			d = 1
		}
		out[i] = d
	}
	return ort.NewShape(out...)
}

// toChannelFirst はNHWCのバッチをNCHWとしてdstに書き込みます。
func toChannelFirst(dst []float32, batch entity.ImageBatch) {
	plane := batch.Height * batch.Width
	for p := 0; p < plane; p++ {
		for c := 0; c < batch.Channels; c++ {
			dst[c*plane+p] = batch.Data[p*batch.Channels+c]
		}
	}
}

package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
)

func TestInputShapeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		dims         ort.Shape
		expected     ort.Shape
		channelFirst bool
		wantErr      bool
	}{
		{name: "keras NHWC with dynamic batch", dims: ort.NewShape(-1, 224, 224, 3), expected: ort.NewShape(1, 224, 224, 3)},
		{name: "fully dynamic spatial dims", dims: ort.NewShape(-1, -1, -1, 3), expected: ort.NewShape(1, 224, 224, 3)},
		{name: "NCHW", dims: ort.NewShape(1, 3, 224, 224), expected: ort.NewShape(1, 3, 224, 224), channelFirst: true},
		{name: "wrong rank", dims: ort.NewShape(1, 150528), wantErr: true},
		{name: "grayscale", dims: ort.NewShape(1, 224, 224, 1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			shape, cf, err := inputShapeFor(tt.dims, 224)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, shape)
			assert.Equal(t, tt.channelFirst, cf)
		})
	}
}

func TestConcreteShape(t *testing.T) {
	t.Parallel()

	shape := concreteShape(ort.NewShape(-1, 11))

	assert.Equal(t, ort.NewShape(1, 11), shape)
	assert.Equal(t, int64(11), shape.FlattenedSize())
}

func TestToChannelFirst(t *testing.T) {
	t.Parallel()

	// 2x1ピクセル: (r0,g0,b0), (r1,g1,b1)
	batch := entity.ImageBatch{Height: 1, Width: 2, Channels: 3, Data: []float32{1, 2, 3, 4, 5, 6}}
	dst := make([]float32, 6)

	toChannelFirst(dst, batch)

	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, dst)
}

// Package imaging validates uploaded images and converts them into the
// normalized NHWC float batch expected by the food classifier.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
)

const (
	// DefaultSize is the square input resolution of the classifier.
	DefaultSize = 224
	channels    = 3

	// MaxPixels bounds width*height before a full decode.
	MaxPixels = 89478485
)

var (
	// ErrNoImage is returned when the upload is empty.
	ErrNoImage = errors.New("empty image")
	// ErrImageTooLarge is returned when the header declares more than MaxPixels pixels.
	ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")
)

// Preprocessor implements usecase.ImagePreprocessor.
type Preprocessor struct {
	size   uint
	interp resize.InterpolationFunction
}

var _ usecase.ImagePreprocessor = (*Preprocessor)(nil)

// NewPreprocessor returns a Preprocessor resizing to size x size. A size of 0
// uses DefaultSize.
func NewPreprocessor(size int) *Preprocessor {
	if size <= 0 {
		size = DefaultSize
	}
	return &Preprocessor{size: uint(size), interp: resize.Bicubic}
}

// Size returns the configured square resolution.
func (p *Preprocessor) Size() int {
	return int(p.size)
}

// Validate checks the declared dimensions, fully decodes the image and rewinds
// r so it can be read again.
func (p *Preprocessor) Validate(r io.ReadSeeker) error {
	if err := checkConfig(r); err != nil {
		return err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind image: %w", err)
	}
	if _, _, err := image.Decode(r); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind image: %w", err)
	}
	return nil
}

// Transform decodes r, drops alpha, resizes to the configured resolution and
// scales every channel from [0,255] to [0,1].
func (p *Preprocessor) Transform(r io.Reader) (entity.ImageBatch, error) {
	var header bytes.Buffer
	if err := checkConfig(io.TeeReader(r, &header)); err != nil {
		return entity.ImageBatch{}, err
	}
	img, _, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return entity.ImageBatch{}, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return entity.ImageBatch{}, fmt.Errorf("image has no pixels: %dx%d", b.Dx(), b.Dy())
	}

	resized := resize.Resize(p.size, p.size, Flatten(img), p.interp)
	return ToBatch(resized), nil
}

// checkConfig reads only the image header.
func checkConfig(r io.Reader) error {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrNoImage
		}
		return fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("image has no pixels: %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

// Flatten copies the stored color channels of img into an opaque image.
// Fully transparent pixels keep their color instead of turning black.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := storedRGB(img.At(x, y))
			out.SetNRGBA(x-b.Min.X, y-b.Min.Y, color.NRGBA{R: r, G: g, B: bl, A: 0xff})
		}
	}
	return out
}

// storedRGB returns the non-premultiplied channels where the color model keeps them.
func storedRGB(c color.Color) (r, g, b uint8) {
	switch v := c.(type) {
	case color.NRGBA:
		return v.R, v.G, v.B
	case color.NRGBA64:
		return uint8(v.R >> 8), uint8(v.G >> 8), uint8(v.B >> 8)
	default:
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		return n.R, n.G, n.B
	}
}

// ToBatch converts img into a single-item NHWC batch without resizing.
func ToBatch(img image.Image) entity.ImageBatch {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float32, 0, w*h*channels)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			data = append(data,
				float32(c.R)/255.0,
				float32(c.G)/255.0,
				float32(c.B)/255.0,
			)
		}
	}

	return entity.ImageBatch{Data: data, Height: h, Width: w, Channels: channels}
}

// ToImage rebuilds an 8-bit RGBA image from a batch produced by ToBatch.
func ToImage(batch entity.ImageBatch) (*image.RGBA, error) {
	if batch.Channels != channels || len(batch.Data) != batch.Height*batch.Width*channels {
		return nil, fmt.Errorf("unexpected batch shape %v with %d values", batch.Shape(), len(batch.Data))
	}
	img := image.NewRGBA(image.Rect(0, 0, batch.Width, batch.Height))
	i := 0
	for y := 0; y < batch.Height; y++ {
		for x := 0; x < batch.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: toByte(batch.Data[i]),
				G: toByte(batch.Data[i+1]),
				B: toByte(batch.Data[i+2]),
				A: 0xff,
			})
			i += channels
		}
	}
	return img, nil
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

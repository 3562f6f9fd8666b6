// Package usecase implements the business logic for the foodrecognition feature.
package usecase

import "errors"

var (
	// ErrConfiguration is the parent of every startup configuration error.
	ErrConfiguration = errors.New("configuration error")

	// ErrModelNotLoaded is returned when no classifier was loaded at startup.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrInvalidImage is returned when the upload cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid image file")

	// ErrPreprocess is returned when a validated image cannot be turned into a model batch.
	ErrPreprocess = errors.New("image preprocessing failed")

	// ErrInference is returned when the classifier fails to produce scores.
	ErrInference = errors.New("inference failed")

	// ErrIndexOutOfRange is returned when the predicted index has no label in the catalog.
	// It signals a mismatch between the deployed model and the class manifest.
	ErrIndexOutOfRange = errors.New("prediction index out of range")

	// ErrNutritionNotFound is returned by nutrition repositories when no row matches a key.
	ErrNutritionNotFound = errors.New("nutrition record not found")
)

// Stage は内部で区別するための失敗段階名を返します。
// 利用者向けメッセージは粗いままで、ログにのみ出力します。
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrModelNotLoaded):
		return "model"
	case errors.Is(err, ErrInvalidImage):
		return "validate"
	case errors.Is(err, ErrPreprocess):
		return "preprocess"
	case errors.Is(err, ErrInference):
		return "predict"
	case errors.Is(err, ErrIndexOutOfRange):
		return "catalog"
	default:
		return "unknown"
	}
}

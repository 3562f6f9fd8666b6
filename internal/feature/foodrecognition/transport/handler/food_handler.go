// Package handler はfoodrecognitionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/transport/http/dto"
	"calorie_backend/internal/feature/foodrecognition/usecase"
)

// フォームのフィールド名とテンプレート名
const (
	FormField = "file"

	tmplHome   = "index.html"
	tmplInput  = "input.html"
	tmplOutput = "output.html"
)

// 利用者向けのエラーメッセージ。原因の詳細はログにのみ出力します。
const (
	MsgInvalidMethod   = "Invalid request method"
	MsgNoImage         = "No image uploaded"
	MsgTooLarge        = "Image too large"
	MsgModelNotLoaded  = "Model not loaded on server"
	MsgInvalidImage    = "Prediction error: invalid image file"
	MsgProcessFailed   = "Prediction error: unable to process image"
	MsgIndexOutOfRange = "Prediction index out of range"
)

// FoodRecognitionUsecase は食品認識のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type FoodRecognitionUsecase interface {
	Ready() bool
	Recognize(ctx context.Context, upload io.ReadSeeker) (*entity.FoodReport, error)
}

// FoodHandler は画像アップロードから栄養情報表示までのHTTPリクエストを処理します。
type FoodHandler struct {
	uc            FoodRecognitionUsecase
	maxUploadSize int64
	log           *zap.Logger
}

// NewFoodHandler はFoodHandlerの新しいインスタンスを生成します。
// maxUploadSizeが0以下の場合、サイズ制限は行いません。
func NewFoodHandler(uc FoodRecognitionUsecase, maxUploadSize int64, log *zap.Logger) *FoodHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FoodHandler{uc: uc, maxUploadSize: maxUploadSize, log: log}
}

// requestError はリクエスト処理の失敗を、HTML用メッセージとJSON用ステータスの組で表します。
type requestError struct {
	status  int
	message string
}

// Home はトップページを表示します。
//
// エンドポイント: GET /
func (h *FoodHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, tmplHome, nil)
}

// Input はアップロードフォームを表示します。
//
// エンドポイント: GET /input
func (h *FoodHandler) Input(c *gin.Context) {
	c.HTML(http.StatusOK, tmplInput, nil)
}

// Output はアップロード画像を認識し、結果ページを表示します。
// エラーはすべてステータス200のプレーンテキストで返します。
//
// エンドポイント: POST /output
// Content-Type: multipart/form-data
// フィールド: file（画像ファイル）
func (h *FoodHandler) Output(c *gin.Context) {
	report, rerr := h.handle(c)
	if rerr != nil {
		c.String(http.StatusOK, rerr.message)
		return
	}

	c.HTML(http.StatusOK, tmplOutput, gin.H{
		"food_item":       report.DisplayName,
		"calories":        report.Nutrition.Calories.String(),
		"protein":         report.Nutrition.Protein.String(),
		"fat":             report.Nutrition.Fat.String(),
		"carbohydrates":   report.Nutrition.Carbohydrates.String(),
		"predicted_class": string(report.Prediction.Label),
	})
}

// Recognize はアップロード画像を認識し、結果をJSONで返します。
//
// エンドポイント: POST /v1/food/recognize
// Content-Type: multipart/form-data
// フィールド: file（画像ファイル）
func (h *FoodHandler) Recognize(c *gin.Context) {
	report, rerr := h.handle(c)
	if rerr != nil {
		c.JSON(rerr.status, dto.ErrorResponse{Error: rerr.message})
		return
	}
	c.JSON(http.StatusOK, dto.FromFoodReport(report))
}

// handle はリクエストを 受信 → 検証 → 前処理 → 推論 → 栄養情報の検索 の順に処理します。
func (h *FoodHandler) handle(c *gin.Context) (*entity.FoodReport, *requestError) {
	if c.Request.Method != http.MethodPost {
		return nil, &requestError{http.StatusMethodNotAllowed, MsgInvalidMethod}
	}

	header, err := c.FormFile(FormField)
	if err != nil {
		h.log.Warn("no image in request", zap.Error(err), zap.String("remote_addr", c.ClientIP()))
		return nil, &requestError{http.StatusBadRequest, MsgNoImage}
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		h.log.Warn("image too large",
			zap.Int64("size", header.Size),
			zap.Int64("limit", h.maxUploadSize))
		return nil, &requestError{http.StatusRequestEntityTooLarge, MsgTooLarge}
	}
	if !h.uc.Ready() {
		return nil, &requestError{http.StatusServiceUnavailable, MsgModelNotLoaded}
	}

	f, err := header.Open()
	if err != nil {
		h.log.Error("failed to open upload", zap.Error(err))
		return nil, &requestError{http.StatusInternalServerError, MsgProcessFailed}
	}
	defer h.closeUpload(f)

	report, err := h.uc.Recognize(c.Request.Context(), f)
	if err != nil {
		return nil, h.classify(err, header.Filename)
	}

	h.log.Info("food recognized",
		zap.String("label", string(report.Prediction.Label)),
		zap.Int("class_index", report.Prediction.ClassIndex),
		zap.Float32("score", report.Prediction.Score))
	return report, nil
}

// classify はユースケースのエラーを利用者向けメッセージに集約し、段階をログに残します。
func (h *FoodHandler) classify(err error, filename string) *requestError {
	stage := usecase.Stage(err)
	fields := []zap.Field{zap.String("stage", stage), zap.String("filename", filename), zap.Error(err)}

	switch {
	case errors.Is(err, usecase.ErrModelNotLoaded):
		h.log.Warn("prediction requested without a model", fields...)
		return &requestError{http.StatusServiceUnavailable, MsgModelNotLoaded}
	case errors.Is(err, usecase.ErrIndexOutOfRange):
		h.log.Error("model output does not match the class catalog", fields...)
		return &requestError{http.StatusBadGateway, MsgIndexOutOfRange}
	case errors.Is(err, usecase.ErrInvalidImage):
		h.log.Warn("prediction failed", fields...)
		return &requestError{http.StatusBadRequest, MsgInvalidImage}
	default:
		h.log.Error("prediction failed", fields...)
		return &requestError{http.StatusInternalServerError, MsgProcessFailed}
	}
}

func (h *FoodHandler) closeUpload(f multipart.File) {
	if err := f.Close(); err != nil {
		h.log.Warn("failed to close upload", zap.Error(err))
	}
}

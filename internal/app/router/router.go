// Package router はHTTPルーティングとミドルウェアを組み立てます。
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	foodhandler "calorie_backend/internal/feature/foodrecognition/transport/handler"
	"calorie_backend/web"
)

// RequestIDHeader はリクエストIDを受け渡すヘッダー名です。
const RequestIDHeader = "X-Request-ID"

// Options はルーターの任意設定です。
type Options struct {
	CORSEnabled bool
	CORSOrigins []string
	// MaxMultipartMemory はマルチパートをメモリ上に保持する上限です。超過分は一時ファイルになります。
	MaxMultipartMemory int64
	Log                *zap.Logger
}

func NewRouter(food *foodhandler.FoodHandler, health gin.HandlerFunc, opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log), gin.Recovery())
	if opts.CORSEnabled {
		r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	}
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}
	r.SetHTMLTemplate(web.Templates())

	// 導通確認用
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)

	// 画面
	r.GET("/", food.Home)
	r.GET("/input", food.Input)
	// GETは "Invalid request method" を返す
	r.GET("/output", food.Output)
	r.POST("/output", food.Output)

	// JSON API
	v1 := r.Group("/v1")
	{
		v1.POST("/food/recognize", food.Recognize)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, RequestIDHeader)
	cfg.ExposeHeaders = []string{RequestIDHeader}
	return cfg
}

// RequestID はリクエストIDを払い出し、レスポンスヘッダーとコンテキストに設定します。
// クライアントが指定したIDはそのまま引き継ぎます。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger はリクエストごとにアクセスログを出力します。
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("request_id", c.GetString(RequestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

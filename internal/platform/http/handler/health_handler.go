// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadinessFunc はモデルなどの依存が利用可能かどうかを返します。
type ReadinessFunc func() bool

// NewHealth は /healthz エンドポイント用のハンドラーを返します。
// モデルの読み込みに失敗してもプロセスは稼働を続けるため、ステータスコードは常に成功で、
// 推論が可能かどうかは model_loaded で報告します。readyがnilの場合はfalse扱いです。
func NewHealth(ready ReadinessFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		switch c.Request.Method {
		case http.MethodHead:
			c.Status(http.StatusOK)
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
		default:
			c.JSON(http.StatusOK, gin.H{
				"status":       "ok",
				"model_loaded": ready != nil && ready(),
			})
		}
	}
}

// Package http は外部サービス呼び出し用のHTTPクライアント設定を提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient はS3などの外部サービス呼び出し用に設定されたHTTPクライアントを作成します。
//
// timeoutはレスポンス本文の読み込みを含むリクエスト全体の上限です。
// モデルのような大きなアーティファクトを取得する場合は十分に長い値を渡すこと。
// 0を渡すと全体のタイムアウトは無効になり、接続とヘッダー受信のタイムアウトのみが適用されます。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}

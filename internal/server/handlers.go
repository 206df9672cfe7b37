package server

import (
	"log"
	"net/http"
	"time"

	"github.com/colttylerwilson/ring-snapshot/internal/frame"
	"github.com/colttylerwilson/ring-snapshot/internal/ring"

	"github.com/gin-gonic/gin"
)

// Handler は各エンドポイントの実装を保持する
type Handler struct {
	client   ring.Client
	cache    *frame.Cache
	cameraID string
}

// ErrorResponse はエラーレスポンスのJSON形式
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetSnapshot は低解像度スナップショットエンドポイントの実装
// ストリーミングもキャッシュも使わず、クラウドから直接取得する
func (h *Handler) GetSnapshot(c *gin.Context) {
	data, err := h.client.Snapshot(c.Request.Context(), h.cameraID)
	if err != nil {
		log.Printf("スナップショットの取得に失敗: %v", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:     "upstream_unavailable",
			Message:   "スナップショットを取得できませんでした",
			Timestamp: time.Now(),
		})
		return
	}

	writeJPEG(c, data)
}

// GetFrame はライブ映像からのフレーム取得エンドポイントの実装
// キャッシュが新鮮ならメモリから、そうでなければ抽出パイプラインの
// 結果を返す。どのステージで失敗しても502として応答する
func (h *Handler) GetFrame(c *gin.Context) {
	data, err := h.cache.GetFrame(c.Request.Context())
	if err != nil {
		// 失敗種別はログでのみ区別する
		log.Printf("フレームの取得に失敗: %v", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:     "frame_unavailable",
			Message:   "フレームを取得できませんでした",
			Timestamp: time.Now(),
		})
		return
	}

	writeJPEG(c, data)
}

// writeJPEG はJPEGレスポンスを書き込む
func writeJPEG(c *gin.Context, data []byte) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/jpeg", data)
}

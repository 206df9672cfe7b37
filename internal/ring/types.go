package ring

import (
	"context"
	"errors"
)

// ErrCameraNotFound は設定されたIDのカメラがアカウントに存在しない場合のエラー
var ErrCameraNotFound = errors.New("カメラが見つかりません")

// Camera はRingクラウド上の1台のカメラを表す
type Camera struct {
	ID   string // カメラの一意識別子
	Name string // カメラの表示名（description）
	Kind string // 機種（doorbot, stickup_cam など）
}

// StreamSession は開始済みライブビューセッションのハンドル
type StreamSession interface {
	// Stop はセッションを停止する。複数回呼んでも安全
	Stop() error
}

// Client はRingクラウドAPIの境界インターフェース
type Client interface {
	// ListCameras はアカウント配下のカメラ一覧を取得する
	ListCameras(ctx context.Context) ([]Camera, error)

	// Snapshot は低解像度スナップショットをJPEGとして取得する
	Snapshot(ctx context.Context, cameraID string) ([]byte, error)

	// StartStream はライブビューを開始し、セグメント化プレイリストを
	// playlistPath へ書き出させる
	StartStream(ctx context.Context, cameraID, playlistPath string) (StreamSession, error)

	// OnRefreshTokenUpdated はリフレッシュトークンのローテーション通知を受け取る
	// ハンドラを登録する。通知はリクエスト処理をブロックしない
	OnRefreshTokenUpdated(handler func(newToken string))
}

package ring

import (
	"context"
	"fmt"
	"sync"
)

// Resolver は設定されたカメラIDをアカウントのカメラ一覧から解決する
// 一覧はキャッシュされ、解決に失敗した場合のみ再取得される
// 一度解決したカメラはプロセスの寿命の間不変
type Resolver struct {
	client   Client
	cameraID string

	mu       sync.Mutex
	cameras  []Camera
	resolved *Camera
}

// NewResolver は新しいResolverを作成する
func NewResolver(client Client, cameraID string) *Resolver {
	return &Resolver{
		client:   client,
		cameraID: cameraID,
	}
}

// Resolve は設定されたIDのカメラを返す
// キャッシュ済み一覧に存在しない場合は一覧を再取得し、それでも
// 見つからなければErrCameraNotFoundを返す（自動リトライはしない）
func (r *Resolver) Resolve(ctx context.Context) (*Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		return r.resolved, nil
	}

	// キャッシュ済み一覧から検索
	if cam := findCamera(r.cameras, r.cameraID); cam != nil {
		r.resolved = cam
		return cam, nil
	}

	// 一覧を再取得して検索
	cameras, err := r.client.ListCameras(ctx)
	if err != nil {
		return nil, fmt.Errorf("カメラ一覧の取得に失敗: %w", err)
	}
	r.cameras = cameras

	if cam := findCamera(r.cameras, r.cameraID); cam != nil {
		r.resolved = cam
		return cam, nil
	}

	return nil, fmt.Errorf("%w: id=%s", ErrCameraNotFound, r.cameraID)
}

// findCamera は一覧からIDが一致するカメラを探してコピーを返す
func findCamera(cameras []Camera, id string) *Camera {
	for _, cam := range cameras {
		if cam.ID == id {
			result := cam
			return &result
		}
	}
	return nil
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/colttylerwilson/ring-snapshot/internal/config"
	"github.com/colttylerwilson/ring-snapshot/internal/frame"
	"github.com/colttylerwilson/ring-snapshot/internal/ring"
)

// MockClient はテスト用のring.Client実装
type MockClient struct {
	snapshotData []byte
	snapshotErr  error
}

func (c *MockClient) ListCameras(ctx context.Context) ([]ring.Camera, error) {
	return nil, nil
}

func (c *MockClient) Snapshot(ctx context.Context, cameraID string) ([]byte, error) {
	return c.snapshotData, c.snapshotErr
}

func (c *MockClient) StartStream(ctx context.Context, cameraID, playlistPath string) (ring.StreamSession, error) {
	return nil, errors.New("not implemented")
}

func (c *MockClient) OnRefreshTokenUpdated(handler func(string)) {}

// MockRunner はテスト用のパイプライン実装
type MockRunner struct {
	data []byte
	err  error
}

func (r *MockRunner) Run(ctx context.Context) ([]byte, error) {
	return r.data, r.err
}

// newTestServer はテスト用のServerを作成する
func newTestServer(client ring.Client, runner frame.Runner, authUser, authPass string) *Server {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Ring: config.RingConfig{CameraID: "test-camera"},
		Auth: config.AuthConfig{User: authUser, Pass: authPass},
	}
	return New(cfg, client, frame.NewCache(runner, time.Minute))
}

// doRequest はテスト用サーバーへリクエストを送る
func doRequest(srv *Server, path, user, pass string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&MockClient{}, &MockRunner{}, "", "")

	w := doRequest(srv, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Errorf("Expected ok:true body, got %s", w.Body.String())
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	client := &MockClient{snapshotData: []byte("jpeg-snapshot")}
	srv := newTestServer(client, &MockRunner{}, "", "")

	w := doRequest(srv, "/ring/snapshot.jpg", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Expected no-store, got %s", cc)
	}
	if w.Body.String() != "jpeg-snapshot" {
		t.Errorf("Expected jpeg-snapshot, got %s", w.Body.String())
	}
}

func TestSnapshotEndpointUpstreamFailure(t *testing.T) {
	client := &MockClient{snapshotErr: errors.New("motion detection disabled")}
	srv := newTestServer(client, &MockRunner{}, "", "")

	w := doRequest(srv, "/ring/snapshot.jpg", "", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "upstream_unavailable") {
		t.Errorf("Expected upstream_unavailable error, got %s", w.Body.String())
	}
}

func TestFrameEndpoint(t *testing.T) {
	srv := newTestServer(&MockClient{}, &MockRunner{data: []byte("jpeg-frame")}, "", "")

	w := doRequest(srv, "/ring/frame.jpg", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Expected no-store, got %s", cc)
	}
	if w.Body.String() != "jpeg-frame" {
		t.Errorf("Expected jpeg-frame, got %s", w.Body.String())
	}
}

func TestFrameEndpointPipelineFailure(t *testing.T) {
	runner := &MockRunner{err: fmt.Errorf("%w: プレイリストが出現しませんでした", frame.ErrTimeout)}
	srv := newTestServer(&MockClient{}, runner, "", "")

	// どのステージの失敗でも502として応答する
	w := doRequest(srv, "/ring/frame.jpg", "", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "frame_unavailable") {
		t.Errorf("Expected frame_unavailable error, got %s", w.Body.String())
	}
}

func TestBasicAuthProtectsImageEndpoints(t *testing.T) {
	client := &MockClient{snapshotData: []byte("jpeg")}
	srv := newTestServer(client, &MockRunner{data: []byte("jpeg")}, "admin", "secret")

	// 認証なしは拒否される
	for _, path := range []string{"/ring/snapshot.jpg", "/ring/frame.jpg"} {
		w := doRequest(srv, path, "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for %s without auth, got %d", path, w.Code)
		}
	}

	// 誤った認証情報も拒否される
	w := doRequest(srv, "/ring/snapshot.jpg", "admin", "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", w.Code)
	}

	// 正しい認証情報は受け付けられる
	w = doRequest(srv, "/ring/snapshot.jpg", "admin", "secret")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid auth, got %d", w.Code)
	}

	// ヘルスチェックは認証不要のまま
	w = doRequest(srv, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for /health without auth, got %d", w.Code)
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0, // ランダムポートを使用
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Ring: config.RingConfig{CameraID: "test-camera"},
	}
	srv := New(cfg, &MockClient{}, frame.NewCache(&MockRunner{}, time.Minute))

	// テスト用のコンテキスト（タイムアウト付き）
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// サーバーを別ゴルーチンで起動
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// サーバーが起動するまで少し待つ
	time.Sleep(100 * time.Millisecond)

	// コンテキストをキャンセルしてサーバーを停止
	cancel()

	// エラーチャンネルから結果を受信
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("サーバーの起動/停止でエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}
}

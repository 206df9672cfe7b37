package ring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	oauthURL = "https://oauth.ring.com/oauth/token"
	apiBase  = "https://api.ring.com/clients_api"

	// Ringの公式モバイルクライアントを名乗る必要がある
	oauthClientID = "ring_official_android"
)

// APIClient はRingクラウドAPIのREST実装
type APIClient struct {
	httpClient    *http.Client
	streamCommand string
	hardwareID    string // セッション毎のデバイス識別子

	mu              sync.Mutex
	refreshToken    string
	accessToken     string
	accessExpires   time.Time
	rotationHandler func(newToken string)
}

// NewAPIClient は新しいAPIClientを作成する
// refreshTokenは初期認証に使うリフレッシュトークン、
// streamCommandはライブビュー開始用の外部ヘルパーコマンド
func NewAPIClient(refreshToken, streamCommand string) *APIClient {
	return &APIClient{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		streamCommand: streamCommand,
		hardwareID:    uuid.New().String(),
		refreshToken:  refreshToken,
	}
}

// OnRefreshTokenUpdated はトークンローテーションのハンドラを登録する
func (c *APIClient) OnRefreshTokenUpdated(handler func(newToken string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotationHandler = handler
}

// tokenResponse はOAuthトークンエンドポイントのレスポンス
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// authenticate は有効なアクセストークンを返す
// 期限切れの場合はリフレッシュトークングラントで再取得する
// Ringはグラント毎にリフレッシュトークンをローテーションするため、
// 新しい値は登録済みハンドラへ非同期に通知される
func (c *APIClient) authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 30秒のマージンを持って有効期限を判定
	if c.accessToken != "" && time.Until(c.accessExpires) > 30*time.Second {
		return c.accessToken, nil
	}

	if c.refreshToken == "" {
		return "", fmt.Errorf("リフレッシュトークンが設定されていません")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)
	form.Set("client_id", oauthClientID)
	form.Set("scope", "client")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("認証リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("hardware_id", c.hardwareID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("認証リクエストに失敗: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("認証に失敗: status=%d body=%s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("認証レスポンスのデコードに失敗: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("認証レスポンスにアクセストークンがありません")
	}

	c.accessToken = tr.AccessToken
	c.accessExpires = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)

	// ローテーションされたリフレッシュトークンを通知
	// ハンドラはリクエスト処理をブロックしてはならないため別ゴルーチンで呼ぶ
	if tr.RefreshToken != "" && tr.RefreshToken != c.refreshToken {
		c.refreshToken = tr.RefreshToken
		if handler := c.rotationHandler; handler != nil {
			go handler(tr.RefreshToken)
		}
	}

	return c.accessToken, nil
}

// apiGet は認証付きGETリクエストを実行してレスポンスボディを返す
func (c *APIClient) apiGet(ctx context.Context, path string) ([]byte, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+path, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("hardware_id", c.hardwareID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエストに失敗: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("APIエラー: %s status=%d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み取りに失敗: %w", err)
	}
	return body, nil
}

// deviceRecord はring_devicesレスポンス内の1台分のデバイス情報
type deviceRecord struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

// devicesResponse はring_devicesエンドポイントのレスポンス
type devicesResponse struct {
	Doorbots           []deviceRecord `json:"doorbots"`
	AuthorizedDoorbots []deviceRecord `json:"authorized_doorbots"`
	StickupCams        []deviceRecord `json:"stickup_cams"`
}

// ListCameras はアカウント配下のカメラ一覧を取得する
func (c *APIClient) ListCameras(ctx context.Context) ([]Camera, error) {
	body, err := c.apiGet(ctx, "/ring_devices")
	if err != nil {
		return nil, err
	}

	var dr devicesResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("デバイス一覧のデコードに失敗: %w", err)
	}

	// ドアベルとスタンドアロンカメラを統合した一覧を返す
	var cameras []Camera
	for _, group := range [][]deviceRecord{dr.Doorbots, dr.AuthorizedDoorbots, dr.StickupCams} {
		for _, d := range group {
			cameras = append(cameras, Camera{
				ID:   strconv.FormatInt(d.ID, 10),
				Name: d.Description,
				Kind: d.Kind,
			})
		}
	}

	return cameras, nil
}

// Snapshot は低解像度スナップショットをJPEGとして取得する
// モーション検知が無効なカメラでは404が返るため、そのままエラーになる
func (c *APIClient) Snapshot(ctx context.Context, cameraID string) ([]byte, error) {
	body, err := c.apiGet(ctx, "/snapshots/image/"+cameraID)
	if err != nil {
		return nil, fmt.Errorf("スナップショットの取得に失敗: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("スナップショットが空です: camera=%s", cameraID)
	}
	return body, nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig `yaml:"server"`
	Ring   RingConfig   `yaml:"ring"`
	Frame  FrameConfig  `yaml:"frame"`
	Auth   AuthConfig   `yaml:"auth"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// RingConfig はRingクラウド関連の設定
type RingConfig struct {
	CameraID     string `yaml:"camera_id"`     // 対象カメラのID（必須）
	RefreshToken string `yaml:"refresh_token"` // 初期リフレッシュトークン
	TokenFile    string `yaml:"token_file"`    // ローテーション後トークンの保存先

	// ライブビュー開始用の外部ヘルパーコマンド
	// {camera} と {output} が実行時に置換される
	StreamCommand string `yaml:"stream_command"`
}

// FrameConfig はフレーム取得パイプラインの設定
type FrameConfig struct {
	CacheWindow     time.Duration `yaml:"cache_window"`     // キャッシュの鮮度ウィンドウ (0で無効)
	ExtractTimeout  time.Duration `yaml:"extract_timeout"`  // ffmpeg抽出のタイムアウト
	PlaylistTimeout time.Duration `yaml:"playlist_timeout"` // プレイリスト出現待ちのタイムアウト
	PollInterval    time.Duration `yaml:"poll_interval"`    // プレイリスト存在確認の間隔
}

// AuthConfig は画像エンドポイントのBasic認証設定
// UserとPassが両方空の場合は認証なしで公開される
type AuthConfig struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// Load は設定を読み込む
// 環境変数を基本とし、CONFIG_FILEが指定されていればYAMLファイルで上書きする
func Load() (*Config, error) {
	// デフォルト設定を作成
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 8080),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // パイプライン待ちが長引くためタイムアウト無効化
		},
		Ring: RingConfig{
			CameraID:      os.Getenv("RING_CAMERA_ID"),
			RefreshToken:  os.Getenv("RING_REFRESH_TOKEN"),
			TokenFile:     getEnvOrDefault("RING_TOKEN_FILE", "ring-token.json"),
			StreamCommand: os.Getenv("RING_STREAM_COMMAND"),
		},
		Frame: FrameConfig{
			CacheWindow:     time.Duration(getEnvAsIntOrDefault("FRAME_CACHE_SECONDS", 300)) * time.Second,
			ExtractTimeout:  time.Duration(getEnvAsIntOrDefault("FRAME_EXTRACT_TIMEOUT_SECONDS", 15)) * time.Second,
			PlaylistTimeout: time.Duration(getEnvAsIntOrDefault("PLAYLIST_WAIT_TIMEOUT_SECONDS", 10)) * time.Second,
			PollInterval:    150 * time.Millisecond,
		},
		Auth: AuthConfig{
			User: os.Getenv("AUTH_USER"),
			Pass: os.Getenv("AUTH_PASS"),
		},
	}

	// YAMLファイルによる上書き（任意）
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// loadFile はYAMLファイルの内容で設定を上書きする
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	// カメラIDは必須
	if c.Ring.CameraID == "" {
		return fmt.Errorf("RING_CAMERA_ID が設定されていません")
	}

	// タイムアウトの検証
	if c.Frame.ExtractTimeout <= 0 {
		return fmt.Errorf("無効な抽出タイムアウト: %v", c.Frame.ExtractTimeout)
	}
	if c.Frame.PlaylistTimeout <= 0 {
		return fmt.Errorf("無効なプレイリスト待ちタイムアウト: %v", c.Frame.PlaylistTimeout)
	}
	if c.Frame.CacheWindow < 0 {
		return fmt.Errorf("無効なキャッシュウィンドウ: %v", c.Frame.CacheWindow)
	}

	// Basic認証はユーザー名とパスワードが揃っている必要がある
	if (c.Auth.User == "") != (c.Auth.Pass == "") {
		return fmt.Errorf("AUTH_USER と AUTH_PASS は両方設定するか両方省略してください")
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

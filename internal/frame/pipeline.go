package frame

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/colttylerwilson/ring-snapshot/internal/ring"
	"github.com/google/uuid"
)

// playlistName は作業ディレクトリ内のプレイリストファイル名
const playlistName = "stream.m3u8"

// Extractor はプレイリストから1フレームを抽出するインターフェース
type Extractor interface {
	ExtractFrame(ctx context.Context, playlistPath string) ([]byte, error)
}

// CameraResolver は設定されたカメラIDを解決するインターフェース
type CameraResolver interface {
	Resolve(ctx context.Context) (*ring.Camera, error)
}

// Pipeline はライブ映像から1フレームを取得する抽出パイプライン
type Pipeline struct {
	client    ring.Client
	resolver  CameraResolver
	extractor Extractor

	playlistTimeout time.Duration // プレイリスト出現待ちの上限
	pollInterval    time.Duration // 存在確認の間隔
	tempRoot        string        // 作業ディレクトリの親（テストで差し替え可能）
}

// NewPipeline は新しいPipelineを作成する
func NewPipeline(client ring.Client, resolver CameraResolver, extractor Extractor, playlistTimeout, pollInterval time.Duration) *Pipeline {
	return &Pipeline{
		client:          client,
		resolver:        resolver,
		extractor:       extractor,
		playlistTimeout: playlistTimeout,
		pollInterval:    pollInterval,
		tempRoot:        os.TempDir(),
	}
}

// Run はパイプラインを1回実行してJPEGバイト列を返す
// どのステージで失敗しても、開始済みのストリームの停止と
// 作成済みの作業ディレクトリの削除は必ず実行される
func (p *Pipeline) Run(ctx context.Context) ([]byte, error) {
	// カメラ解決
	cam, err := p.resolver.Resolve(ctx)
	if err != nil {
		if errors.Is(err, ring.ErrCameraNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	// 排他的な作業ディレクトリを作成
	workDir := filepath.Join(p.tempRoot, "ring-frame-"+uuid.New().String())
	if err := os.Mkdir(workDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: 作業ディレクトリの作成に失敗: %v", ErrResource, err)
	}

	var session ring.StreamSession
	defer func() {
		p.cleanup(session, workDir)
	}()

	// ライブビューを開始
	playlist := filepath.Join(workDir, playlistName)
	session, err = p.client.StartStream(ctx, cam.ID, playlist)
	if err != nil {
		return nil, fmt.Errorf("%w: ライブビューの開始に失敗: %v", ErrUpstream, err)
	}

	// ストリーム開始は完了イベントを通知しないため、
	// プレイリストの出現をポーリングで待つ
	if err := p.waitForPlaylist(ctx, playlist); err != nil {
		return nil, err
	}

	// フレームを抽出
	data, err := p.extractor.ExtractFrame(ctx, playlist)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: 抽出結果が空です", ErrExtraction)
	}

	return data, nil
}

// waitForPlaylist はプレイリストファイルの出現を一定間隔で確認する
func (p *Pipeline) waitForPlaylist(ctx context.Context, path string) error {
	deadline := time.Now().Add(p.playlistTimeout)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: プレイリストが %v 以内に出現しませんでした", ErrTimeout, p.playlistTimeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: プレイリスト待ちが中断されました: %v", ErrTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// cleanup はランが確保したリソースを解放する
// 失敗はログに残すだけで、ランの結果には影響させない
func (p *Pipeline) cleanup(session ring.StreamSession, workDir string) {
	if session != nil {
		if err := session.Stop(); err != nil {
			log.Printf("ライブビューセッションの停止に失敗: %v", err)
		}
	}
	if err := os.RemoveAll(workDir); err != nil {
		log.Printf("作業ディレクトリの削除に失敗: %v", err)
	}
}

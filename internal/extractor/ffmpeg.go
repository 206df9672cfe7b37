// Package extractor はffmpegによる1フレーム抽出を担う
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// FFmpeg はffmpegプロセスを使ってプレイリストから1フレームを抽出する
type FFmpeg struct {
	binary  string        // ffmpegの実行ファイル名
	timeout time.Duration // 抽出全体のタイムアウト
}

// NewFFmpeg は新しいFFmpegを作成する
func NewFFmpeg(timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		binary:  "ffmpeg",
		timeout: timeout,
	}
}

// ExtractFrame はプレイリストから1フレームをデコードしてJPEGバイト列として返す
// タイムアウトを超過した場合はプロセスを強制終了し、
// context.DeadlineExceededを含むエラーを返す
func (f *FFmpeg) ExtractFrame(ctx context.Context, playlistPath string) ([]byte, error) {
	// タイムアウト超過時はCommandContextがプロセスをkillする
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary,
		"-hide_banner",
		"-loglevel", "error",
		"-i", playlistPath,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", "2", // 高品質JPEG
		"-",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// タイムアウトと抽出失敗を呼び出し側で区別できるようにする
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("フレーム抽出がタイムアウトしました (%v): %w", f.timeout, ctxErr)
		}
		return nil, fmt.Errorf("フレーム抽出に失敗: %w (stderr: %s)", err, stderr.String())
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("フレーム抽出の出力が空です (stderr: %s)", stderr.String())
	}

	return stdout.Bytes(), nil
}

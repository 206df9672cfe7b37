package ring

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"sync"
)

// StartStream はライブビューを開始する
// SIP/WebRTCの確立は外部ヘルパーコマンドに委譲し、ヘルパーが
// playlistPath へセグメント化プレイリストを書き出す
func (c *APIClient) StartStream(ctx context.Context, cameraID, playlistPath string) (StreamSession, error) {
	if c.streamCommand == "" {
		return nil, fmt.Errorf("ライブビューコマンドが設定されていません")
	}

	// コマンドテンプレートのプレースホルダを置換
	replacer := strings.NewReplacer("{camera}", cameraID, "{output}", playlistPath)
	args := strings.Fields(replacer.Replace(c.streamCommand))
	if len(args) == 0 {
		return nil, fmt.Errorf("ライブビューコマンドが空です")
	}

	// ヘルパーはセッション停止まで動き続けるため、リクエストのコンテキスト
	// ではなくセッションのStopで寿命を管理する
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ライブビューヘルパーの起動に失敗: %w", err)
	}

	log.Printf("ライブビューを開始しました: camera=%s pid=%d", cameraID, cmd.Process.Pid)

	return &execSession{cmd: cmd}, nil
}

// execSession は外部ヘルパープロセスとして動くライブビューセッション
type execSession struct {
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

// Stop はヘルパープロセスを終了させる。複数回呼んでも安全
func (s *execSession) Stop() error {
	s.once.Do(func() {
		if err := s.cmd.Process.Kill(); err != nil {
			s.err = fmt.Errorf("ライブビューヘルパーの停止に失敗: %w", err)
			return
		}
		// ゾンビプロセスを残さないよう回収する
		_ = s.cmd.Wait()
	})
	return s.err
}

// Package tokenstore はローテーションされたリフレッシュトークンの永続化を担う
package tokenstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// State はトークンファイルに保存される内容
type State struct {
	RefreshToken string    `json:"refreshToken"` // 最新のリフレッシュトークン
	UpdatedAt    time.Time `json:"updatedAt"`    // 最終更新時刻
}

// Store はトークン状態をJSONファイルとして読み書きする
type Store struct {
	path string
	mu   sync.Mutex
}

// New は指定されたパスを使うStoreを作成する
func New(path string) *Store {
	return &Store{path: path}
}

// Load は保存済みの状態を読み込む
// ファイルが存在しない・壊れている場合はゼロ値を返し、呼び出し側が
// 設定で与えられたトークンにフォールバックする
func (s *Store) Load() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("トークンファイルのデコードに失敗（無視します）: %v", err)
		return State{}
	}

	return state
}

// Save は新しいトークンを永続化する
// 一時ファイルへ書き込んでからリネームすることで部分書き込みを防ぐ
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		RefreshToken: token,
		UpdatedAt:    time.Now(),
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("トークン状態のエンコードに失敗: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp")
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("一時ファイルの書き込みに失敗: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("トークンファイルの置き換えに失敗: %w", err)
	}

	return nil
}

// HandleRotation はトークンローテーション通知のハンドラ
// 永続化の失敗はログに残すだけで、フレーム取得処理には影響させない
func (s *Store) HandleRotation(newToken string) {
	if newToken == "" {
		return
	}
	if err := s.Save(newToken); err != nil {
		log.Printf("ローテーションされたトークンの保存に失敗: %v", err)
		return
	}
	log.Println("ローテーションされたリフレッシュトークンを保存しました")
}

package tokenstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := New(path)

	if err := store.Save("token-abc"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	state := store.Load()
	if state.RefreshToken != "token-abc" {
		t.Errorf("Expected token-abc, got %s", state.RefreshToken)
	}
	if state.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set")
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing.json"))

	// ファイルが存在しない場合はゼロ値を返す
	state := store.Load()
	if state.RefreshToken != "" {
		t.Errorf("Expected empty token for missing file, got %s", state.RefreshToken)
	}
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte("not-json{"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// 壊れたファイルでもエラーにせずゼロ値を返す
	store := New(path)
	state := store.Load()
	if state.RefreshToken != "" {
		t.Errorf("Expected empty token for corrupt file, got %s", state.RefreshToken)
	}
}

func TestHandleRotationPersistsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := New(path)

	// ローテーション通知を処理
	store.HandleRotation("rotated-token")

	// ファイルのrefreshTokenフィールドが新しい値になっている
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if state.RefreshToken != "rotated-token" {
		t.Errorf("Expected rotated-token, got %s", state.RefreshToken)
	}
}

func TestHandleRotationIgnoresEmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := New(path)

	if err := store.Save("original"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 空のトークンは保存しない
	store.HandleRotation("")
	if state := store.Load(); state.RefreshToken != "original" {
		t.Errorf("Expected original to survive, got %s", state.RefreshToken)
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := New(path)

	if err := store.Save("first"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	before := store.Load()

	time.Sleep(10 * time.Millisecond)
	if err := store.Save("second"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	after := store.Load()
	if after.RefreshToken != "second" {
		t.Errorf("Expected second, got %s", after.RefreshToken)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("Expected UpdatedAt to advance on overwrite")
	}
}

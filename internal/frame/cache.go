package frame

import (
	"context"
	"sync"
	"time"
)

// Runner はパイプラインを1回実行するインターフェース
type Runner interface {
	Run(ctx context.Context) ([]byte, error)
}

// entry はキャッシュされた1フレーム
// 置き換えは常にミューテックス下で丸ごと行われる
type entry struct {
	data       []byte
	capturedAt time.Time
}

// flight は実行中の1ランと待機者が共有する結果セル
// dataとerrはdoneがクローズされる前に確定する
type flight struct {
	done chan struct{}
	data []byte
	err  error
}

// Cache はシングルフライト制御付きのフレームキャッシュ
// 鮮度ウィンドウ内のフレームはメモリから返し、そうでなければ
// パイプラインを1本だけ起動して並行リクエストを相乗りさせる
type Cache struct {
	runner Runner
	window time.Duration // 鮮度ウィンドウ (0でキャッシュ無効)

	mu       sync.Mutex
	entry    *entry
	inflight *flight
}

// NewCache は新しいCacheを作成する
func NewCache(runner Runner, window time.Duration) *Cache {
	return &Cache{
		runner: runner,
		window: window,
	}
}

// GetFrame はJPEGフレームを返す
// キャッシュが新鮮ならそれを返し、ランが実行中ならその結果を待ち、
// どちらでもなければ新しいランを開始する
// 鮮度判定とインフライト登録は同一のミューテックス保持中に行われるため、
// 2本のパイプラインが同時に起動することはない
func (c *Cache) GetFrame(ctx context.Context) ([]byte, error) {
	c.mu.Lock()

	// 新鮮なキャッシュがあれば即座に返す
	if c.window > 0 && c.entry != nil && time.Since(c.entry.capturedAt) < c.window {
		data := c.entry.data
		c.mu.Unlock()
		return data, nil
	}

	// 実行中のランがあれば相乗りする
	if f := c.inflight; f != nil {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.data, f.err
		case <-ctx.Done():
			// 待機を打ち切るのはこのリクエストだけで、ランは他の
			// 待機者のために継続する
			return nil, ctx.Err()
		}
	}

	// 新しいランを開始する
	f := &flight{done: make(chan struct{})}
	c.inflight = f
	c.mu.Unlock()

	// 開始したリクエストが切断されてもランは完走させる
	data, err := c.runner.Run(context.WithoutCancel(ctx))

	c.mu.Lock()
	if err == nil {
		// 成功時のみキャッシュを置き換える
		c.entry = &entry{data: data, capturedAt: time.Now()}
	}
	// 成否に関わらずインフライトを解除し、次のリクエストが
	// 新しいランを開始できるようにする
	c.inflight = nil
	c.mu.Unlock()

	f.data, f.err = data, err
	close(f.done)

	return data, err
}

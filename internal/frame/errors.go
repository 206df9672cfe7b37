package frame

import "errors"

// パイプラインの失敗種別
// 外部へはいずれも502相当として返し、ログでのみ区別する
var (
	// ErrNotFound は設定されたカメラIDがアカウントに存在しない
	ErrNotFound = errors.New("対象カメラが存在しません")

	// ErrUpstream はRingクラウドへの呼び出しが失敗した
	ErrUpstream = errors.New("アップストリームの呼び出しに失敗しました")

	// ErrTimeout はプレイリスト待ちまたは抽出が制限時間を超過した
	ErrTimeout = errors.New("タイムアウトしました")

	// ErrExtraction は抽出プロセスが異常終了したか出力が空だった
	ErrExtraction = errors.New("フレーム抽出に失敗しました")

	// ErrResource は作業ディレクトリの作成に失敗した
	ErrResource = errors.New("リソース操作に失敗しました")
)

// Package ring Ringクラウドとの境界を担う
//
// # 責務
// - Ringクラウドへの認証（リフレッシュトークングラント）とトークンローテーションの通知
// - アカウント配下のカメラ一覧の取得
// - 低解像度スナップショットの取得
// - 外部ヘルパー経由でのライブビュー開始とセッション管理
// - 設定されたカメラIDの解決（一覧のキャッシュ付き）
//
// # 仕様
// - Client: クラウドAPIの境界インターフェース（テストではモックに差し替える）
// - APIClient: REST実装。Ringはリフレッシュトークンをグラント毎にローテーション
//   するため、新しい値はOnRefreshTokenUpdatedのハンドラへ非同期に通知される
// - StreamSession: ライブビューセッションのハンドル。Stopは冪等
// - Resolver: カメラ一覧をキャッシュし、解決失敗時のみ再取得する
//
// # 前提要件
//   - ライブビューの確立にはSIP/WebRTCを扱う外部ヘルパーコマンドが必要
//     （RING_STREAM_COMMAND で指定。{camera} と {output} が置換される）
package ring

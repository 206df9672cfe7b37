// Package frame ライブ映像からの1フレーム取得を担う
//
// # 責務
// - フレーム抽出パイプラインの実行（カメラ解決→作業ディレクトリ作成→
//   ライブビュー開始→プレイリスト出現待ち→ffmpeg抽出→クリーンアップ）
// - 抽出結果の短期キャッシュ（鮮度ウィンドウ内はメモリから応答）
// - シングルフライト制御（同時に動くパイプラインは常に1本、
//   並行リクエストは同一結果を受け取る）
//
// # 仕様
// - Cache: 鮮度判定・インフライト管理・結果の原子的な置き換えを
//   1つのミューテックスで保護する
// - Pipeline: 各ステージは失敗し得る。どのステージで失敗しても
//   ストリーム停止と作業ディレクトリ削除は必ず1回実行される
// - クリーンアップの失敗はログに残すだけで、ランの結果を上書きしない
// - 自動リトライは行わない。失敗は待機者全員へ同一のエラーとして伝わる
//
// # 前提要件
//   - ffmpeg: プレイリストからのフレーム抽出に使用
//     Ubuntu/Debian: sudo apt install ffmpeg
package frame

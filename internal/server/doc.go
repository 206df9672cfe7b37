// Package server は、HTTPサーバーとエンドポイントを管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// 画像エンドポイントのBasic認証を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - ヘルスチェック・スナップショット・フレームエンドポイントの提供
//   - 画像エンドポイントへのBasic認証の適用（設定時のみ）
//   - パイプライン失敗の502への変換
//
// 仕様:
//   - ルーティングはgin-gonic/ginを使用
//   - グレースフルシャットダウンに対応
//   - 画像レスポンスには Cache-Control: no-store を付与
package server

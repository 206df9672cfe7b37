package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/colttylerwilson/ring-snapshot/internal/config"
	"github.com/colttylerwilson/ring-snapshot/internal/extractor"
	"github.com/colttylerwilson/ring-snapshot/internal/frame"
	"github.com/colttylerwilson/ring-snapshot/internal/ring"
	"github.com/colttylerwilson/ring-snapshot/internal/server"
	"github.com/colttylerwilson/ring-snapshot/internal/tokenstore"
)

func main() {
	// コマンドラインオプション
	var (
		host = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		help = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("ring-snapshot")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  ring-snapshot [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// 保存済みトークンがあれば設定値より優先する
	store := tokenstore.New(cfg.Ring.TokenFile)
	refreshToken := cfg.Ring.RefreshToken
	if state := store.Load(); state.RefreshToken != "" {
		refreshToken = state.RefreshToken
	}

	// Ringクライアントを作成し、トークンローテーションを永続化につなぐ
	client := ring.NewAPIClient(refreshToken, cfg.Ring.StreamCommand)
	client.OnRefreshTokenUpdated(store.HandleRotation)

	// 抽出パイプラインとキャッシュを構築
	resolver := ring.NewResolver(client, cfg.Ring.CameraID)
	pipeline := frame.NewPipeline(
		client,
		resolver,
		extractor.NewFFmpeg(cfg.Frame.ExtractTimeout),
		cfg.Frame.PlaylistTimeout,
		cfg.Frame.PollInterval,
	)
	cache := frame.NewCache(pipeline, cfg.Frame.CacheWindow)

	// サーバーを作成して起動
	srv := server.New(cfg, client, cache)

	log.Printf("ring-snapshot サーバーを起動します: %s (camera=%s)", cfg.ServerAddress(), cfg.Ring.CameraID)
	if err := srv.Start(context.Background()); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}

// relaycheck は設定済みの Webhook 宛先へテスト通知を 1 件送信し、疎通を確認する。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/sngm3741/portfolio-services/api/internal/config"
	"github.com/sngm3741/portfolio-services/api/internal/infrastructure/webhook"
	"github.com/sngm3741/portfolio-services/api/internal/intake/domain"
)

type checkOptions struct {
	envDir  string
	envName string
	message string
	format  string
	source  string
	timeout time.Duration
}

func main() {
	opts := parseFlags()
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "relaycheck"})

	if opts.envName != "" {
		if err := loadEnvFiles(opts.envDir, opts.envName); err != nil {
			logger.Warn("env ファイルを読み込めませんでした。環境変数のみを使用します", "error", err)
		}
	}

	if err := run(context.Background(), opts); err != nil {
		logger.Error("テスト通知の送信に失敗しました", "error", err)
		os.Exit(1)
	}
	logger.Info("テスト通知を送信しました")
}

func run(ctx context.Context, opts checkOptions) error {
	destination := config.WebhookDestination()
	if destination == "" {
		return domain.ErrNotConfigured
	}

	submission, err := domain.NewSubmission(opts.message)
	if err != nil {
		return err
	}

	origin := domain.RequestOrigin{
		SourceKey: opts.source,
		Country:   domain.Unknown,
		Region:    domain.Unknown,
		City:      domain.Unknown,
		Latitude:  domain.Unknown,
		Longitude: domain.Unknown,
	}
	notification := domain.NewNotification(strings.TrimSpace(os.Getenv("NOTIFY_MENTION")), submission, origin)

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	// -format が未指定なら env ファイル読み込み後の WEBHOOK_FORMAT を使う。
	format := opts.format
	if format == "" {
		format = envOrDefault("WEBHOOK_FORMAT", "discord")
	}
	client := webhook.NewClient(&http.Client{Timeout: opts.timeout}, webhook.ParseFormat(format))
	return client.Deliver(ctx, destination, notification)
}

func parseFlags() checkOptions {
	var opts checkOptions
	flag.StringVar(&opts.envDir, "env-dir", filepath.Join("..", "env"), "env ファイルのディレクトリ")
	flag.StringVar(&opts.envName, "env", "", "env ディレクトリ内の env ファイル名 (例: local, staging)")
	flag.StringVar(&opts.message, "message", "relaycheck: test notification", "送信するメッセージ本文")
	flag.StringVar(&opts.format, "format", "", "payload 形式 (discord|slack)。省略時は WEBHOOK_FORMAT")
	flag.StringVar(&opts.source, "source", "relaycheck", "通知に表示する送信元キー")
	flag.DurationVar(&opts.timeout, "timeout", 5*time.Second, "送信タイムアウト")
	flag.Parse()

	if opts.timeout <= 0 {
		opts.timeout = 5 * time.Second
	}
	return opts
}

func loadEnvFiles(dir, envName string) error {
	base := filepath.Clean(dir)
	files := []string{
		filepath.Join(base, "shared.env"),
		filepath.Join(base, fmt.Sprintf("%s.env", envName)),
	}
	// godotenv.Load は既存の環境変数を上書きしない。
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("%s の読み込みに失敗しました: %w", strings.Join(files, ", "), err)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

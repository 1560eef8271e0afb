package main

import (
	"context"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/portfolio-services/api/internal/config"
	"github.com/sngm3741/portfolio-services/api/internal/infrastructure/geolite"
	"github.com/sngm3741/portfolio-services/api/internal/server"
)

func main() {
	cfg := config.Load()
	logger := cfg.ServerLog

	var backends server.Backends

	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		client, err := mongo.Connect(ctx, clientOptions)
		cancel()
		if err != nil {
			logger.Fatal("MongoDB 接続に失敗しました", "error", err)
		}
		backends.Mongo = client
	} else {
		logger.Warn("MONGO_URI is not set; relay failures will only be logged")
	}

	if cfg.CooldownLedger == config.LedgerRedis {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("REDIS_URL の解析に失敗しました", "error", err)
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		err = client.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Fatal("Redis 接続に失敗しました", "error", err)
		}
		backends.Redis = client
	}

	if cfg.GeoLiteCityDB != "" {
		resolver, err := geolite.Open(cfg.GeoLiteCityDB)
		if err != nil {
			logger.Warn("GeoLite データベースを開けませんでした。ヘッダーの位置情報のみを使用します", "error", err)
		} else {
			backends.Geo = resolver
		}
	}

	app := server.New(cfg, backends)
	if err := app.Run(); err != nil {
		logger.Error("サーバーが異常終了", "error", err)
		os.Exit(1)
	}
}

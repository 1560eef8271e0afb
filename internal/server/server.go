package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	adminapp "github.com/sngm3741/portfolio-services/api/internal/admin/application"
	"github.com/sngm3741/portfolio-services/api/internal/config"
	"github.com/sngm3741/portfolio-services/api/internal/infrastructure/geolite"
	"github.com/sngm3741/portfolio-services/api/internal/infrastructure/memory"
	mongodoc "github.com/sngm3741/portfolio-services/api/internal/infrastructure/mongo"
	redisledger "github.com/sngm3741/portfolio-services/api/internal/infrastructure/redis"
	"github.com/sngm3741/portfolio-services/api/internal/infrastructure/webhook"
	intakeapp "github.com/sngm3741/portfolio-services/api/internal/intake/application"
	adminhttp "github.com/sngm3741/portfolio-services/api/internal/interfaces/http/admin"
	commonhttp "github.com/sngm3741/portfolio-services/api/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/portfolio-services/api/internal/interfaces/http/public"
)

// Backends are the optional external connections opened by cmd/api.
// Any of them may be nil; the server degrades to in-process behaviour.
type Backends struct {
	Mongo *mongo.Client
	Redis *goredis.Client
	Geo   *geolite.Resolver
}

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger             *log.Logger
	mongo              *mongo.Client
	redis              *goredis.Client
	redisLedger        *redisledger.CooldownLedger
	geo                *geolite.Resolver
	submissions        intakeapp.SubmissionService
	relayFailures      adminapp.RelayFailureService
	jwtConfigs         []config.JWTConfig
	jwtAudience        string
	addr               string
	allowedOrigins     []string
	destinationPresent func() bool
}

type authenticatedUser = commonhttp.AuthenticatedUser

// New は Config と外部接続を受け取り、アプリケーションサービスとハンドラを組み立てた Server を返す。
func New(cfg config.Config, backends Backends) *Server {
	logger := cfg.ServerLog
	if logger == nil {
		logger = log.Default()
	}

	srv := &Server{
		logger:             logger,
		mongo:              backends.Mongo,
		redis:              backends.Redis,
		geo:                backends.Geo,
		jwtConfigs:         append([]config.JWTConfig(nil), cfg.JWTConfigs...),
		jwtAudience:        cfg.JWTAudience,
		addr:               cfg.Addr,
		allowedOrigins:     append([]string(nil), cfg.AllowedOrigins...),
		destinationPresent: func() bool { return config.WebhookDestination() != "" },
	}

	var ledger intakeapp.CooldownLedger
	if backends.Redis != nil {
		srv.redisLedger = redisledger.NewCooldownLedger(backends.Redis, cfg.RedisKeyPrefix)
		ledger = srv.redisLedger
	} else {
		ledger = memory.NewCooldownLedger()
	}

	serviceCfg := intakeapp.SubmissionServiceConfig{
		Logger:       logger.WithPrefix("intake"),
		Ledger:       ledger,
		Relay:        webhook.NewClient(&http.Client{Timeout: cfg.RelayTimeout}, webhook.ParseFormat(cfg.WebhookFormat)),
		Destination:  config.WebhookDestination,
		Mention:      cfg.NotifyMention,
		RelayTimeout: cfg.RelayTimeout,
	}
	if backends.Geo != nil {
		serviceCfg.Geo = backends.Geo
	}

	if backends.Mongo != nil {
		repo := mongodoc.NewRelayFailureRepository(backends.Mongo.Database(cfg.MongoDatabase), cfg.FailedNotificationCollection)
		serviceCfg.Failures = repo
		srv.relayFailures = adminapp.NewRelayFailureService(repo)
	}

	srv.submissions = intakeapp.NewSubmissionService(serviceCfg)
	return srv
}

// Handler builds the routing tree. Admin routes are mounted only when both a JWT
// secret and MongoDB are configured.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger.StandardLog(), NoColor: true}))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:      s.logger,
		Submissions: s.submissions,
	})
	publicHandler.Register(router)

	if s.relayFailures != nil && len(s.jwtConfigs) > 0 {
		adminHandler := adminhttp.NewHandler(adminhttp.Config{
			Logger:        s.logger.WithPrefix("admin"),
			RelayFailures: s.relayFailures,
		})
		router.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware)
			adminHandler.Register(r)
		})
	} else {
		s.logger.Info("admin API disabled", "jwt", len(s.jwtConfigs) > 0, "mongo", s.relayFailures != nil)
	}

	return router
}

// Run はHTTPサーバーを起動し、シグナル受信まで待機する。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP サーバー起動", "addr", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
// Preflight requests are answered with 204 without reaching the handlers.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Retry-After")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	_, ok := allowed[origin]
	return ok
}

type healthResponse struct {
	Status            string            `json:"status"`
	Time              string            `json:"time"`
	WebhookConfigured bool              `json:"webhookConfigured"`
	Checks            map[string]string `json:"checks,omitempty"`
}

// healthHandler は Redis / MongoDB への疎通確認を行う。どちらかが失敗すれば 503。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:            "ok",
			Time:              time.Now().Format(time.RFC3339),
			WebhookConfigured: s.destinationPresent(),
			Checks:            map[string]string{},
		}

		if s.redisLedger != nil {
			resp.Checks["redis"] = "ok"
			if err := s.redisLedger.Ping(ctx); err != nil {
				resp.Status = "degraded"
				resp.Checks["redis"] = err.Error()
			}
		}
		if s.mongo != nil {
			resp.Checks["mongo"] = "ok"
			if err := s.mongo.Ping(ctx, readpref.Primary()); err != nil {
				resp.Status = "degraded"
				resp.Checks["mongo"] = err.Error()
			}
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		commonhttp.WriteJSON(s.logger, w, status, resp)
	}
}

// shutdown は外部接続をタイムアウト付きで閉じる。
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if s.mongo != nil {
		if err := s.mongo.Disconnect(shutdownCtx); err != nil {
			s.logger.Error("MongoDB 切断時にエラー", "error", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Redis 切断時にエラー", "error", err)
		}
	}
	if err := s.geo.Close(); err != nil {
		s.logger.Error("GeoLite データベースのクローズに失敗", "error", err)
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case sig := <-sigChan:
		srv.logger.Info("シグナルを受信。サーバー停止処理を開始します。", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Error("サーバー停止時にエラー", "error", err)
		}
	}

	srv.shutdown(context.Background())
	return runErr
}

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jacl-coder/ShuttleRotation-Server/config"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/match"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/protocol"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Gateway API网关
type Gateway struct {
	config      *config.Config
	service     *match.MatchService
	auth        *AuthHandler
	rateLimiter *RateLimiter
	logger      *zap.Logger
	httpServer  *http.Server
	isRunning   bool
}

// NewGateway 创建新的网关
func NewGateway(cfg *config.Config, service *match.MatchService, logger *zap.Logger) *Gateway {
	return &Gateway{
		config:      cfg,
		service:     service,
		auth:        NewAuthHandler(&cfg.Auth, logger),
		rateLimiter: NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		logger:      logger,
	}
}

// Handler 构建路由
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(NewLoggingMiddleware(g.logger).Middleware)
	r.Use(NewSecurityMiddleware().Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: g.config.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:         86400,
	}))

	r.Get("/health", g.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(g.rateLimiter.Middleware)
		r.Use(NewETagMiddleware().Middleware)

		r.Post("/auth/token", g.auth.handleToken)
		match.NewMatchHandler(g.service, g.logger).RegisterRoutes(r, g.auth.Middleware)
		NewCostHandler(g.logger).RegisterRoutes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		protocol.SendMessage(w, http.StatusNotFound, "接口不存在")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		protocol.SendMessage(w, http.StatusMethodNotAllowed, "不支持的请求方法")
	})

	return r
}

// Start 启动网关
func (g *Gateway) Start() error {
	if g.isRunning {
		return fmt.Errorf("网关已经在运行")
	}

	g.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", g.config.Server.Port),
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		g.logger.Info("API网关启动", zap.Int("port", g.config.Server.Port))
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Fatal("HTTP服务器错误", zap.Error(err))
		}
	}()

	if !g.auth.Enabled() {
		g.logger.Warn("未配置 auth.secret，修改场次的接口无需认证")
	}

	g.isRunning = true
	return nil
}

// Stop 停止网关
func (g *Gateway) Stop() error {
	if !g.isRunning {
		return nil
	}
	g.isRunning = false
	g.rateLimiter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭HTTP服务器失败: %w", err)
	}

	g.logger.Info("API网关已停止")
	return nil
}

// handleHealth 健康检查
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if g.service == nil {
		protocol.SendMessage(w, http.StatusServiceUnavailable, "服务未初始化")
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "OK", nil)
}

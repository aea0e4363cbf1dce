package gateway

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jacl-coder/ShuttleRotation-Server/config"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/protocol"
	"go.uber.org/zap"
)

const organizerSubject = "organizer"

// AuthHandler 组织者认证，持有口令的人才能修改场次
type AuthHandler struct {
	secret   []byte
	passcode string
	tokenTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// tokenRequest 获取令牌请求
type tokenRequest struct {
	Passcode string `json:"passcode" validate:"required"`
}

// tokenData 令牌响应数据
type tokenData struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.AuthConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		secret:   []byte(cfg.Secret),
		passcode: cfg.Passcode,
		tokenTTL: cfg.TokenTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Enabled 是否开启认证
func (h *AuthHandler) Enabled() bool {
	return len(h.secret) > 0
}

// handleToken 用口令换取令牌
func (h *AuthHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	if !h.Enabled() {
		protocol.SendMessage(w, http.StatusNotFound, "未开启认证")
		return
	}

	var req tokenRequest
	if err := protocol.DecodeRequest(r, &req); err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Passcode), []byte(h.passcode)) != 1 {
		h.logger.Info("组织者口令错误", zap.String("client", clientIP(r)))
		protocol.SendMessage(w, http.StatusUnauthorized, "口令错误")
		return
	}

	token, expiresAt, err := h.GenerateToken()
	if err != nil {
		protocol.SendErrorResponse(w, h.logger, err)
		return
	}
	protocol.SendSuccessResponse(w, http.StatusOK, "认证成功", tokenData{Token: token, ExpiresAt: expiresAt})
}

// GenerateToken 签发组织者令牌
func (h *AuthHandler) GenerateToken() (string, time.Time, error) {
	now := h.now()
	expiresAt := now.Add(h.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   organizerSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken 校验令牌
func (h *AuthHandler) ValidateToken(tokenString string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(h.now),
		jwt.WithSubject(organizerSubject),
	)
	return err
}

// Middleware 要求组织者令牌，未开启认证时直接放行
func (h *AuthHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			protocol.SendMessage(w, http.StatusUnauthorized, "缺少认证令牌")
			return
		}

		if err := h.ValidateToken(token); err != nil {
			message := "无效的认证令牌"
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "认证令牌已过期"
			}
			protocol.SendMessage(w, http.StatusUnauthorized, message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

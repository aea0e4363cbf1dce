package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
	"go.uber.org/zap"
)

// Response 统一响应格式
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// RequestError 请求体格式错误或字段校验失败
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("无效的请求: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeRequest 解析并校验 JSON 请求体
func DecodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &RequestError{Err: err}
	}
	if err := validate.Struct(v); err != nil {
		return &RequestError{Err: err}
	}
	return nil
}

// SendSuccessResponse 发送成功响应
func SendSuccessResponse(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SendErrorResponse 根据错误类型发送错误响应
func SendErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, code := StatusFromError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("请求处理失败", zap.Error(err))
		message = "服务器内部错误"
	}
	writeJSON(w, status, Response{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// SendMessage 发送不带数据的错误响应
func SendMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{
		Success: status < http.StatusBadRequest,
		Message: message,
	})
}

// StatusFromError 错误对应的 HTTP 状态码与错误码
func StatusFromError(err error) (int, string) {
	var sessionErr *models.SessionError
	if errors.As(err, &sessionErr) {
		switch sessionErr.Kind() {
		case models.KindNotFound:
			return http.StatusNotFound, string(sessionErr.Code)
		case models.KindSequencing:
			return http.StatusConflict, string(sessionErr.Code)
		default:
			return http.StatusBadRequest, string(sessionErr.Code)
		}
	}

	var requestErr *RequestError
	if errors.As(err, &requestErr) {
		return http.StatusBadRequest, "bad_request"
	}

	return http.StatusInternalServerError, "internal_error"
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

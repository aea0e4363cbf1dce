package gateway

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"net/http"
	"strings"
)

// ETagMiddleware 条件请求中间件
// 场次随时可能被修改，这里不保存响应，只按响应体计算ETag，客户端内容未变时返回304
type ETagMiddleware struct {
	// 需要计算ETag的路径前缀
	Paths []string
}

// NewETagMiddleware 创建条件请求中间件
func NewETagMiddleware() *ETagMiddleware {
	return &ETagMiddleware{
		Paths: []string{
			"/sessions/",
			"/archive",
		},
	}
}

// Middleware 条件请求中间件
func (em *ETagMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 只处理GET请求
		if r.Method != http.MethodGet || !em.matches(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		recorder := &bufferedRecorder{
			header:     make(http.Header),
			statusCode: http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		for key, values := range recorder.header {
			w.Header()[key] = values
		}

		if recorder.statusCode != http.StatusOK {
			w.WriteHeader(recorder.statusCode)
			w.Write(recorder.body.Bytes())
			return
		}

		etag := generateETag(recorder.body.Bytes())
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(recorder.body.Bytes())
	})
}

// matches 检查路径是否需要计算ETag
func (em *ETagMiddleware) matches(path string) bool {
	for _, prefix := range em.Paths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// generateETag 生成ETag
func generateETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`"%x"`, hash)
}

// bufferedRecorder 缓冲响应，计算ETag后再写出
type bufferedRecorder struct {
	header     http.Header
	statusCode int
	body       bytes.Buffer
}

// Header 获取头部
func (br *bufferedRecorder) Header() http.Header {
	return br.header
}

// WriteHeader 记录状态码
func (br *bufferedRecorder) WriteHeader(code int) {
	br.statusCode = code
}

// Write 记录响应体
func (br *bufferedRecorder) Write(data []byte) (int, error) {
	return br.body.Write(data)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	httpReadHeaderTimeout = 10 * time.Second
	httpReadTimeout       = 30 * time.Second
	httpIdleTimeout       = 60 * time.Second
)

// HTTPService 收银台、VNPay 回调与管理端共用的 HTTP 服务
type HTTPService struct {
	server *http.Server
	ready  chan net.Addr
}

// NewHTTPService 创建 HTTP 服务
// 不设 WriteTimeout：管理端 CSV 导出按行流式写出
func NewHTTPService(addr string, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: httpReadHeaderTimeout,
			ReadTimeout:       httpReadTimeout,
			IdleTimeout:       httpIdleTimeout,
		},
		ready: make(chan net.Addr, 1),
	}
}

// Name 服务名称
func (s *HTTPService) Name() string { return "http" }

// Ready 监听成功后返回实际地址
func (s *HTTPService) Ready() <-chan net.Addr { return s.ready }

// Start 先绑定端口再开始服务，端口占用会立即返回错误
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	s.ready <- ln.Addr()
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅停机，等待进行中的回调处理完成
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Package metrics 提供 /metrics 与附加 handler 的 HTTP 服务
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server 指标服务器，使用独立 ServeMux，不注册到 http.DefaultServeMux
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// NewServer 在 addr 上监听，/metrics 暴露 gatherer，extra 按路径追加（如 /stream）。
// gatherer 为 nil 时使用默认 registry。
func NewServer(addr string, gatherer prometheus.Gatherer, extra map[string]http.Handler) (*Server, error) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	for path, h := range extra {
		mux.Handle(path, h)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}, nil
}

// Addr 实际监听地址，addr 传 ":0" 时可用来获取端口
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Start 后台启动服务，错误通过返回的 channel 传出
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// serveMetrics exposes the registry on /metrics until the returned function is called.
// It returns the address actually bound, which differs from port when port is 0.
func serveMetrics(port int, reg *prometheus.Registry, l *zap.Logger) (string, func(), error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", nil, fmt.Errorf("listen for metrics: %w", err)
	}

	handler := http.NewServeMux()
	handler.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.HandleFunc("/healthz", healthzEndpoint)
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	addr := listener.Addr().String()
	l.Info("serving metrics", zap.String("addr", addr))

	return addr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctx)
		<-done
	}, nil
}

func healthzEndpoint(rw http.ResponseWriter, _ *http.Request) {
	_, _ = rw.Write([]byte("OK"))
}

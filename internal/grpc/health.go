// Package grpc exposes the standard gRPC health service so orchestrators
// can probe the API without speaking the JSON protocol.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	applog "palestra/internal/log"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "palestra.Gym"

type HealthServer struct {
	addr   string
	server *gogrpc.Server
	health *health.Server
}

// NewHealthServer starts NOT_SERVING; call SetServing once the store is open.
func NewHealthServer(addr string) *HealthServer {
	hs := health.NewServer()
	srv := gogrpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &HealthServer{addr: addr, server: srv, health: hs}
	s.SetServing(false)
	return s
}

func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// ListenAndServe blocks until the server stops.
func (s *HealthServer) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

func (s *HealthServer) Serve(lis net.Listener) error {
	slog.Info("gRPC health server listening",
		applog.FieldComponent, applog.ComponentGRPC,
		"addr", lis.Addr().String())
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown reports NOT_SERVING to every watcher, then drains in-flight RPCs
// until ctx expires.
func (s *HealthServer) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
}

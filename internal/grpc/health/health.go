// Package health поднимает gRPC health-сервис консоли. Статус SERVING
// означает, что последнее обновление снимка дашборда прошло успешно.
package health

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
)

// ServiceName имя сервиса в health-проверках.
const ServiceName = "gym-console"

// Server gRPC-сервер с единственным health-сервисом.
type Server struct {
	log    *slog.Logger
	grpc   *grpc.Server
	health *grpchealth.Server
}

// New создает новый экземпляр Server. До первого SetServing статус NOT_SERVING.
func New(log *slog.Logger) *Server {
	h := grpchealth.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	return &Server{log: log, grpc: srv, health: h}
}

// SetServing переключает статус по результату обновления снимка.
func (s *Server) SetServing(err error) {
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.log.Warn("health switched to NOT_SERVING", sl.Err(err))
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve слушает addr до вызова Stop.
func (s *Server) Serve(addr string) error {
	const op = "health.Serve"
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("gRPC health server starting", slog.String("address", addr))
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Stop переводит сервис в NOT_SERVING и останавливает сервер.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

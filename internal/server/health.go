package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/refcue/constants"
)

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func registerHealth(r fiber.Router) {
	r.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(healthResponse{Status: "ok", Service: constants.ServiceName})
	})
}

// Pinger reports storage reachability.
type Pinger func(ctx context.Context) error

// HealthServer serves grpc.health.v1 with a status that follows the store.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	ping   Pinger
	every  time.Duration
	logger *slog.Logger
	stop   chan struct{}
}

func NewHealthServer(ping Pinger, every time.Duration, logger *slog.Logger) *HealthServer {
	if every <= 0 {
		every = 15 * time.Second
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)
	return &HealthServer{grpc: gs, health: hs, ping: ping, every: every, logger: logger, stop: make(chan struct{})}
}

// Check pings the store once and updates the serving status.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.ping(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(constants.ServiceName, status)
	return status
}

// Serve blocks serving on lis until Stop.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.Check(context.Background())
	go func() {
		t := time.NewTicker(s.every)
		defer t.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-t.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.every/2)
				s.Check(ctx)
				cancel()
			}
		}
	}()
	s.logger.Info("grpc health listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

func (s *HealthServer) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

package handler

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// WatcherServiceName is the service name probes ask the health server about.
const WatcherServiceName = "powatcher.InboxWatcher"

// GRPCHandler exposes the watcher's liveness over the standard gRPC health
// protocol so orchestrators can probe it.
type GRPCHandler struct {
	health *health.Server
}

func NewGRPCHandler() *GRPCHandler {
	h := &GRPCHandler{health: health.NewServer()}
	h.SetServing(false)
	return h
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

// SetServing flips both the watcher service and the server-wide ("")
// status.
func (h *GRPCHandler) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(WatcherServiceName, status)
}

// Shutdown marks everything NOT_SERVING and ignores later updates.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}

package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// loggingInterceptor logs each unary call with its status code. Health
// checks are logged at debug level since probes arrive every few seconds.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "latency", time.Since(start).String()}

	switch {
	case err != nil:
		s.logger.Warn(ctx, "grpc call failed", append(args, "error", err)...)
	case info.FullMethod == "/grpc.health.v1.Health/Check":
		s.logger.Debug(ctx, "grpc call", args...)
	default:
		s.logger.Info(ctx, "grpc call", args...)
	}

	return resp, err
}

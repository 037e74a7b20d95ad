package main

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/barberbook/libs/grpcx"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const bookingHealthService = "barberbook.booking.v1"

// newBookingProbe returns a readiness check against booking-service's gRPC
// health endpoint. An empty addr disables the check.
func newBookingProbe(addr string) (func(context.Context) error, func() error, error) {
	if addr == "" {
		return nil, func() error { return nil }, nil
	}
	conn, err := grpcx.Dial(addr, grpcx.DialOptions{})
	if err != nil {
		return nil, nil, err
	}
	return healthProbe(healthpb.NewHealthClient(conn), bookingHealthService), conn.Close, nil
}

func healthProbe(client healthpb.HealthClient, service string) func(context.Context) error {
	return func(ctx context.Context) error {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			return err
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("%s is %s", service, resp.GetStatus())
		}
		return nil
	}
}

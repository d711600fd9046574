package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Instance describes how this process is reachable.
type Instance struct {
	Name     string
	Host     string
	HTTPPort int
	GRPCPort int
}

func (i Instance) services() []Service {
	httpID := fmt.Sprintf("%s-%s-%d", i.Name, i.Host, i.HTTPPort)
	grpcID := fmt.Sprintf("%s-grpc-%s-%d", i.Name, i.Host, i.GRPCPort)
	return []Service{
		{
			ID: httpID, Name: i.Name, Address: i.Host, Port: i.HTTPPort,
			Tags:  []string{"http", "api"},
			Check: HTTPCheck(httpID, i.Host, i.HTTPPort, "/health"),
		},
		{
			ID: grpcID, Name: i.Name + "-grpc", Address: i.Host, Port: i.GRPCPort,
			Tags:  []string{"grpc"},
			Check: GRPCCheck(grpcID, i.Host, i.GRPCPort),
		},
	}
}

// RegisterSelf announces the HTTP API and the gRPC endpoint. On success it
// returns a function withdrawing both; on failure nothing stays registered.
func RegisterSelf(ctx context.Context, reg ServiceRegistry, inst Instance, logger *zap.Logger) (func(), error) {
	var done []string
	withdraw := func(ctx context.Context) error {
		var errs []error
		for i := len(done) - 1; i >= 0; i-- {
			errs = append(errs, reg.Deregister(ctx, done[i]))
		}
		return errors.Join(errs...)
	}

	for _, svc := range inst.services() {
		if err := reg.Register(ctx, svc); err != nil {
			return nil, errors.Join(err, withdraw(ctx))
		}
		done = append(done, svc.ID)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := withdraw(ctx); err != nil {
			logger.Warn("Consul deregistration incomplete", zap.Error(err))
		}
	}, nil
}

// LogPeers reports the healthy instances of name already known to the
// registry. Having none is normal for the first instance.
func LogPeers(ctx context.Context, reg ServiceRegistry, name string, logger *zap.Logger) {
	peers, err := reg.Discover(ctx, name, "")
	switch {
	case errors.Is(err, ErrNoHealthyInstances):
		logger.Info("No healthy peers yet", zap.String("service", name))
	case err != nil:
		logger.Warn("Peer lookup failed", zap.String("service", name), zap.Error(err))
	default:
		logger.Info("Healthy peers", zap.String("service", name), zap.Strings("addresses", peers))
	}
}

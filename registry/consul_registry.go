package registry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

var ErrNoHealthyInstances = errors.New("no healthy instances")

// ConsulRegistry talks to the local Consul agent over its HTTP API.
type ConsulRegistry struct {
	agent  *consulapi.Agent
	health *consulapi.Health
	logger *zap.Logger
}

var _ ServiceRegistry = (*ConsulRegistry)(nil)

// NewConsulRegistry builds a client for the agent at address and fails fast
// when the agent does not answer.
func NewConsulRegistry(address string, logger *zap.Logger) (*ConsulRegistry, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = address

	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client for %s: %w", address, err)
	}
	node, err := client.Agent().NodeName()
	if err != nil {
		return nil, fmt.Errorf("consul agent at %s unreachable: %w", address, err)
	}

	logger = logger.Named("consul").With(zap.String("agent", address))
	logger.Debug("Consul agent reachable", zap.String("node", node))

	return &ConsulRegistry{
		agent:  client.Agent(),
		health: client.Health(),
		logger: logger,
	}, nil
}

func (r *ConsulRegistry) Register(ctx context.Context, svc Service) error {
	opts := consulapi.ServiceRegisterOpts{ReplaceExistingChecks: true}.WithContext(ctx)
	err := r.agent.ServiceRegisterOpts(&consulapi.AgentServiceRegistration{
		ID:      svc.ID,
		Name:    svc.Name,
		Tags:    svc.Tags,
		Port:    svc.Port,
		Address: svc.Address,
		Check:   svc.Check,
	}, opts)
	if err != nil {
		return fmt.Errorf("registering %s: %w", svc.ID, err)
	}
	r.logger.Info("Service announced", zap.String("id", svc.ID), zap.String("address", net.JoinHostPort(svc.Address, strconv.Itoa(svc.Port))))
	return nil
}

func (r *ConsulRegistry) Deregister(ctx context.Context, id string) error {
	q := (&consulapi.QueryOptions{}).WithContext(ctx)
	if err := r.agent.ServiceDeregisterOpts(id, q); err != nil {
		return fmt.Errorf("deregistering %s: %w", id, err)
	}
	r.logger.Info("Service withdrawn", zap.String("id", id))
	return nil
}

func (r *ConsulRegistry) Discover(ctx context.Context, name, tag string) ([]string, error) {
	q := (&consulapi.QueryOptions{}).WithContext(ctx)
	entries, _, err := r.health.Service(name, tag, true, q)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", name, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoHealthyInstances)
	}

	addrs := make([]string, 0, len(entries))
	for _, entry := range entries {
		host := entry.Service.Address
		if host == "" {
			// registered without an address: reachable on the node address
			host = entry.Node.Address
		}
		addrs = append(addrs, net.JoinHostPort(host, strconv.Itoa(entry.Service.Port)))
	}
	return addrs, nil
}

// HTTPCheck probes http://host:port/path.
func HTTPCheck(id, host string, port int, path string) *consulapi.AgentServiceCheck {
	return &consulapi.AgentServiceCheck{
		CheckID:                        id + ":http",
		Name:                           "HTTP " + path,
		HTTP:                           "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + path,
		Method:                         "GET",
		Interval:                       checkInterval,
		Timeout:                        checkTimeout,
		DeregisterCriticalServiceAfter: deregisterAfter,
	}
}

// GRPCCheck probes grpc.health.v1 on host:port.
func GRPCCheck(id, host string, port int) *consulapi.AgentServiceCheck {
	return &consulapi.AgentServiceCheck{
		CheckID:                        id + ":grpc",
		Name:                           "gRPC health",
		GRPC:                           net.JoinHostPort(host, strconv.Itoa(port)),
		Interval:                       checkInterval,
		Timeout:                        checkTimeout,
		DeregisterCriticalServiceAfter: deregisterAfter,
	}
}

const (
	checkInterval   = "10s"
	checkTimeout    = "2s"
	deregisterAfter = "1m"
)

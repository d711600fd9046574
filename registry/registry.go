package registry

import (
	"context"

	consulapi "github.com/hashicorp/consul/api"
)

// Service is one announced endpoint of this process.
type Service struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Check   *consulapi.AgentServiceCheck
}

// ServiceRegistry announces endpoints and looks up healthy peers.
type ServiceRegistry interface {
	Register(ctx context.Context, svc Service) error
	Deregister(ctx context.Context, id string) error
	// Discover returns "host:port" of every instance of name (optionally
	// filtered by tag) whose checks pass.
	Discover(ctx context.Context, name, tag string) ([]string, error)
}

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeAgent answers the subset of the Consul agent HTTP API the registry uses.
type fakeAgent struct {
	mu           sync.Mutex
	registered   []consulapi.AgentServiceRegistration
	deregistered []string
	instances    []map[string]interface{}

	replaceChecks bool
}

func (a *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case r.URL.Path == "/v1/agent/self":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"Config": map[string]interface{}{"NodeName": "node-1"}})
	case r.URL.Path == "/v1/agent/service/register":
		var reg consulapi.AgentServiceRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.registered = append(a.registered, reg)
		a.replaceChecks = r.URL.Query().Get("replace-existing-checks") == "true"
	case strings.HasPrefix(r.URL.Path, "/v1/agent/service/deregister/"):
		a.deregistered = append(a.deregistered, strings.TrimPrefix(r.URL.Path, "/v1/agent/service/deregister/"))
	case strings.HasPrefix(r.URL.Path, "/v1/health/service/"):
		_ = json.NewEncoder(w).Encode(a.instances)
	default:
		http.NotFound(w, r)
	}
}

func newTestRegistry(t *testing.T, agent *fakeAgent) *ConsulRegistry {
	t.Helper()
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	reg, err := NewConsulRegistry(srv.URL, zap.NewNop())
	require.NoError(t, err)
	return reg
}

func TestConsulRegistry_RegisterAndDeregister(t *testing.T) {
	agent := &fakeAgent{}
	reg := newTestRegistry(t, agent)
	ctx := context.Background()

	svc := Service{
		ID: "svc-1", Name: "social-media", Address: "10.0.0.5", Port: 8000,
		Tags:  []string{"http"},
		Check: HTTPCheck("svc-1", "10.0.0.5", 8000, "/health"),
	}
	require.NoError(t, reg.Register(ctx, svc))
	require.NoError(t, reg.Deregister(ctx, "svc-1"))

	require.Len(t, agent.registered, 1)
	got := agent.registered[0]
	assert.Equal(t, "svc-1", got.ID)
	assert.Equal(t, "social-media", got.Name)
	assert.Equal(t, 8000, got.Port)
	assert.True(t, agent.replaceChecks)
	require.NotNil(t, got.Check)
	assert.Equal(t, "http://10.0.0.5:8000/health", got.Check.HTTP)
	assert.Equal(t, "svc-1:http", got.Check.CheckID)
	assert.Equal(t, []string{"svc-1"}, agent.deregistered)
}

func TestConsulRegistry_Discover(t *testing.T) {
	agent := &fakeAgent{instances: []map[string]interface{}{
		{"Node": map[string]interface{}{"Address": "10.0.0.1"}, "Service": map[string]interface{}{"Address": "", "Port": 8000}},
		{"Node": map[string]interface{}{"Address": "10.0.0.2"}, "Service": map[string]interface{}{"Address": "192.168.1.2", "Port": 8001}},
	}}
	reg := newTestRegistry(t, agent)
	ctx := context.Background()

	addrs, err := reg.Discover(ctx, "social-media", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:8000", "192.168.1.2:8001"}, addrs)

	agent.mu.Lock()
	agent.instances = nil
	agent.mu.Unlock()
	_, err = reg.Discover(ctx, "social-media", "")
	assert.ErrorIs(t, err, ErrNoHealthyInstances)
}

func TestConsulRegistry_CanceledContext(t *testing.T) {
	reg := newTestRegistry(t, &fakeAgent{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := reg.Register(ctx, Service{ID: "svc-1", Name: "social-media", Port: 8000})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewConsulRegistry_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewConsulRegistry(srv.URL, zap.NewNop())
	assert.Error(t, err)
}

type recordingRegistry struct {
	registered   []string
	deregistered []string
	checks       []*consulapi.AgentServiceCheck
	failOn       string

	peers       []string
	discoverErr error
}

func (r *recordingRegistry) Register(_ context.Context, svc Service) error {
	if svc.ID == r.failOn {
		return errors.New("agent rejected registration")
	}
	r.registered = append(r.registered, svc.ID)
	r.checks = append(r.checks, svc.Check)
	return nil
}

func (r *recordingRegistry) Deregister(_ context.Context, id string) error {
	r.deregistered = append(r.deregistered, id)
	return nil
}

func (r *recordingRegistry) Discover(context.Context, string, string) ([]string, error) {
	return r.peers, r.discoverErr
}

func TestRegisterSelf(t *testing.T) {
	inst := Instance{Name: "social-media", Host: "10.0.0.5", HTTPPort: 8000, GRPCPort: 50051}
	ctx := context.Background()

	t.Run("Registers both endpoints", func(t *testing.T) {
		reg := &recordingRegistry{}
		deregister, err := RegisterSelf(ctx, reg, inst, zap.NewNop())
		require.NoError(t, err)

		assert.Equal(t, []string{"social-media-10.0.0.5-8000", "social-media-grpc-10.0.0.5-50051"}, reg.registered)
		assert.Equal(t, "http://10.0.0.5:8000/health", reg.checks[0].HTTP)
		assert.Equal(t, "10.0.0.5:50051", reg.checks[1].GRPC)

		deregister()
		assert.Equal(t, []string{"social-media-grpc-10.0.0.5-50051", "social-media-10.0.0.5-8000"}, reg.deregistered)
	})

	t.Run("Rolls back the HTTP registration", func(t *testing.T) {
		reg := &recordingRegistry{failOn: "social-media-grpc-10.0.0.5-50051"}
		_, err := RegisterSelf(ctx, reg, inst, zap.NewNop())
		assert.Error(t, err)
		assert.Equal(t, []string{"social-media-10.0.0.5-8000"}, reg.deregistered)
	})
}

func TestLogPeers(t *testing.T) {
	tests := []struct {
		name    string
		reg     *recordingRegistry
		level   zapcore.Level
		message string
	}{
		{"Peers found", &recordingRegistry{peers: []string{"10.0.0.6:8000"}}, zapcore.InfoLevel, "Healthy peers"},
		{"First instance", &recordingRegistry{discoverErr: ErrNoHealthyInstances}, zapcore.InfoLevel, "No healthy peers yet"},
		{"Lookup error", &recordingRegistry{discoverErr: errors.New("connection refused")}, zapcore.WarnLevel, "Peer lookup failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			LogPeers(context.Background(), tt.reg, "social-media", zap.New(core))

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.message, entries[0].Message)
			assert.Equal(t, "social-media", entries[0].ContextMap()["service"])
		})
	}
}

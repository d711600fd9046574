package interceptors

import (
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// runUnary drives req through ics the way grpc.ChainUnaryInterceptor does.
func runUnary(ctx context.Context, req any, ics []grpc.UnaryServerInterceptor, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if len(ics) == 0 {
		return handler(ctx, req)
	}
	return ics[0](ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return runUnary(ctx, req, ics[1:], info, handler)
	})
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger(zap.New(core))

	l.Log(context.Background(), logging.LevelWarn, "slow call", "grpc.method", "Check", "dangling")
	l.Log(context.Background(), logging.LevelInfo, "done", 42, "skipped", "grpc.code", "OK")
	l.Log(context.Background(), logging.Level(99), "odd level")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "slow call", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"grpc.method": "Check"}, entries[0].ContextMap())

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{"grpc.code": "OK"}, entries[1].ContextMap())

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(99), entries[2].ContextMap()["grpc.log_level"])
}

func TestUnaryInterceptors(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	t.Run("Logs finished call", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		resp, err := runUnary(context.Background(), "req", UnaryInterceptors(zap.New(core)), info,
			func(ctx context.Context, req any) (any, error) { return "resp", nil })
		require.NoError(t, err)
		assert.Equal(t, "resp", resp)

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "Check", fields["grpc.method"])
		assert.Equal(t, "OK", fields["grpc.code"])
	})

	t.Run("Panic becomes Internal and is logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		_, err := runUnary(context.Background(), nil, UnaryInterceptors(zap.New(core)), info,
			func(ctx context.Context, req any) (any, error) { panic("boom") })
		assert.Equal(t, codes.Internal, status.Code(err))

		panics := logs.FilterMessage("gRPC handler panicked").All()
		require.Len(t, panics, 1)
		assert.Equal(t, "boom", panics[0].ContextMap()["panic"])

		finished := logs.FilterField(zap.String("grpc.code", "Internal")).All()
		require.Len(t, finished, 1)
		assert.Equal(t, zapcore.ErrorLevel, finished[0].Level)
	})
}

func TestServerOptions(t *testing.T) {
	assert.Len(t, ServerOptions(zap.NewNop()), 2)
	assert.Len(t, StreamInterceptors(zap.NewNop()), 2)
}

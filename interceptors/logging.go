package interceptors

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var zapLevels = map[logging.Level]zapcore.Level{
	logging.LevelDebug: zapcore.DebugLevel,
	logging.LevelInfo:  zapcore.InfoLevel,
	logging.LevelWarn:  zapcore.WarnLevel,
	logging.LevelError: zapcore.ErrorLevel,
}

// ZapLogger writes middleware events to l. Fields arrive as alternating
// key/value pairs; pairs with a non-string key are dropped.
func ZapLogger(l *zap.Logger) logging.Logger {
	return logging.LoggerFunc(func(_ context.Context, lvl logging.Level, msg string, kv ...any) {
		fields := make([]zap.Field, 0, len(kv)/2+1)
		for i := 1; i < len(kv); i += 2 {
			if key, ok := kv[i-1].(string); ok {
				fields = append(fields, zap.Any(key, kv[i]))
			}
		}

		level, known := zapLevels[lvl]
		if !known {
			level = zapcore.ErrorLevel
			fields = append(fields, zap.Int("grpc.log_level", int(lvl)))
		}
		l.Log(level, msg, fields...)
	})
}

func loggingOptions() []logging.Option {
	return []logging.Option{
		logging.WithLogOnEvents(logging.FinishCall),
		logging.WithDurationField(logging.DurationToDurationField),
		logging.WithLevels(logging.DefaultServerCodeToLevel),
	}
}

func recoveryOptions(logger *zap.Logger) []recovery.Option {
	return []recovery.Option{
		recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
			logger.Error("gRPC handler panicked", zap.String("panic", fmt.Sprint(p)), zap.Stack("stack"))
			return status.Error(codes.Internal, "internal error")
		}),
	}
}

// UnaryInterceptors logs every finished call. Panics are recovered inside
// the logging layer so they are reported as Internal.
func UnaryInterceptors(logger *zap.Logger) []grpc.UnaryServerInterceptor {
	return []grpc.UnaryServerInterceptor{
		logging.UnaryServerInterceptor(ZapLogger(logger), loggingOptions()...),
		recovery.UnaryServerInterceptor(recoveryOptions(logger)...),
	}
}

// StreamInterceptors is the streaming counterpart of UnaryInterceptors.
func StreamInterceptors(logger *zap.Logger) []grpc.StreamServerInterceptor {
	return []grpc.StreamServerInterceptor{
		logging.StreamServerInterceptor(ZapLogger(logger), loggingOptions()...),
		recovery.StreamServerInterceptor(recoveryOptions(logger)...),
	}
}

func ServerOptions(logger *zap.Logger) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryInterceptors(logger)...),
		grpc.ChainStreamInterceptor(StreamInterceptors(logger)...),
	}
}

package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestAuthInterceptor(t *testing.T) {
	validToken := "test-token-123"
	interceptor := AuthInterceptor(validToken)

	tests := []struct {
		name           string
		ctx            context.Context
		handlerCalled  bool
		expectedCode   codes.Code
		expectedErrMsg string
	}{
		{
			name: "Valid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", validToken),
			),
			handlerCalled:  true,
			expectedCode:   codes.OK,
			expectedErrMsg: "",
		},
		{
			name: "Invalid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "wrong-token"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name: "Bearer Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+validToken),
			),
			handlerCalled:  true,
			expectedCode:   codes.OK,
			expectedErrMsg: "",
		},
		{
			name:           "Missing Token",
			ctx:            context.Background(),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing metadata",
		},
		{
			name: "Missing Authorization Header",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("other-header", "value"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing authorization header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				handlerCalled = true
				return "success", nil
			}

			info := &grpc.UnaryServerInfo{
				FullMethod: "/test.Service/Method",
			}

			resp, err := interceptor(tt.ctx, "test-request", info, handler)

			assert.Equal(t, tt.handlerCalled, handlerCalled, "handler called status mismatch")

			if tt.expectedCode == codes.OK {
				assert.NoError(t, err)
				assert.Equal(t, "success", resp)
			} else {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok, "error should be a gRPC status")
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Contains(t, st.Message(), tt.expectedErrMsg)
			}
		})
	}
}

func TestAuthInterceptor_HealthCheckIsPublic(t *testing.T) {
	interceptor := AuthInterceptor("secret")

	called := false
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return "ok", nil
	}

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	interceptor := LoggingInterceptor(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Method"}

	resp, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "success", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "success", resp)

	_, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "nope")
	})
	assert.Error(t, err)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "NotFound", entries[1].ContextMap()["code"])
	}
}

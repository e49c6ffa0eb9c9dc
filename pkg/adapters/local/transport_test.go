package local_test

import (
	"context"
	"testing"

	"github.com/aretw0/procflow/pkg/adapters/local"
	"github.com/aretw0/procflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTransport_Contract(t *testing.T) {
	ports.RunTransportContract(t, func() ports.Transport {
		return local.New()
	})
}

func TestLocalTransport_MiddlewareOrder(t *testing.T) {
	var trace []string
	mw := func(name string) ports.Middleware {
		return func(method ports.Method, next ports.MethodHandler) ports.MethodHandler {
			return func(ctx context.Context, req *ports.Request) (any, error) {
				trace = append(trace, name+":"+method.String())
				return next(ctx, req)
			}
		}
	}

	tr := local.New(local.WithMiddleware(mw("outer"), mw("inner")))
	method := ports.Method{Service: "svc", Operation: "op"}
	require.NoError(t, tr.Register(method, func(ctx context.Context, req *ports.Request) (any, error) {
		trace = append(trace, "handler")
		return "ok", nil
	}))

	out, err := tr.Invoke(context.Background(), &ports.Request{Method: method})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []string{"outer:svc.op", "inner:svc.op", "handler"}, trace)
	assert.Equal(t, 1, tr.Methods())
}

func TestLocalTransport_NotFoundWithoutPath(t *testing.T) {
	tr := local.New()
	_, err := tr.Invoke(context.Background(), &ports.Request{Method: ports.Method{Service: "a", Operation: "b"}})
	require.Error(t, err)
	assert.Equal(t, "procedure not found: a.b", err.Error())
}

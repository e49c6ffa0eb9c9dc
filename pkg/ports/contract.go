package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/procflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTransportContract runs a suite of tests to verify that a Transport
// implementation adheres to the defined interface contract.
// newTransport must return an empty transport on every call.
func RunTransportContract(t *testing.T, newTransport func() Transport) {
	ctx := context.Background()

	t.Run("Register and Invoke", func(t *testing.T) {
		tr := newTransport()
		method := Method{Service: "math", Operation: "double"}

		err := tr.Register(method, func(ctx context.Context, req *Request) (any, error) {
			return req.Input.(int) * 2, nil
		})
		require.NoError(t, err)

		out, err := tr.Invoke(ctx, &Request{Method: method, Path: domain.NewPath("math", "double"), Input: 21})
		require.NoError(t, err)
		assert.Equal(t, 42, out)
	})

	t.Run("Invoke Unknown Method", func(t *testing.T) {
		tr := newTransport()

		_, err := tr.Invoke(ctx, &Request{Method: Method{Service: "x"}, Path: domain.NewPath("x")})
		assert.ErrorIs(t, err, domain.ErrProcedureNotFound)
		assert.Contains(t, err.Error(), "x")
	})

	t.Run("Register Replaces", func(t *testing.T) {
		tr := newTransport()
		method := Method{Service: "svc"}

		require.NoError(t, tr.Register(method, func(ctx context.Context, req *Request) (any, error) {
			return "first", nil
		}))
		require.NoError(t, tr.Register(method, func(ctx context.Context, req *Request) (any, error) {
			return "second", nil
		}))

		out, err := tr.Invoke(ctx, &Request{Method: method, Path: domain.NewPath("svc")})
		require.NoError(t, err)
		assert.Equal(t, "second", out)
	})

	t.Run("Handler Errors Propagate", func(t *testing.T) {
		tr := newTransport()
		method := Method{Service: "svc", Operation: "fail"}
		boom := errors.New("boom")

		require.NoError(t, tr.Register(method, func(ctx context.Context, req *Request) (any, error) {
			return nil, boom
		}))

		_, err := tr.Invoke(ctx, &Request{Method: method, Path: domain.NewPath("svc", "fail")})
		assert.Same(t, boom, err)
	})

	t.Run("Methods Are Independent", func(t *testing.T) {
		tr := newTransport()
		b := Method{Service: "a", Operation: "b"}
		c := Method{Service: "a", Operation: "c"}

		require.NoError(t, tr.Register(b, func(ctx context.Context, req *Request) (any, error) { return "b", nil }))
		require.NoError(t, tr.Register(c, func(ctx context.Context, req *Request) (any, error) { return "c", nil }))

		out, err := tr.Invoke(ctx, &Request{Method: b})
		require.NoError(t, err)
		assert.Equal(t, "b", out)

		out, err = tr.Invoke(ctx, &Request{Method: c})
		require.NoError(t, err)
		assert.Equal(t, "c", out)
	})
}

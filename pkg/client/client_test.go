package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/procflow/pkg/adapters/local"
	"github.com/aretw0/procflow/pkg/client"
	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/dsl"
	"github.com/aretw0/procflow/pkg/procs"
	"github.com/aretw0/procflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness wires a registry with the builtins and a recorder of handler calls.
type harness struct {
	reg   *registry.Registry
	mu    sync.Mutex
	calls []string
	seen  map[string]any
	md    map[string]map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		reg:  registry.New(),
		seen: make(map[string]any),
		md:   make(map[string]map[string]string),
	}
	require.NoError(t, procs.Register(h.reg))
	return h
}

// returning registers a procedure that records its input and returns out.
func (h *harness) returning(t *testing.T, name string, out any) {
	t.Helper()
	require.NoError(t, h.reg.Register(domain.NewPath(name), func(ctx context.Context, input any, call *registry.CallContext) (any, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.calls = append(h.calls, name)
		h.seen[name] = input
		h.md[name] = call.Metadata
		return out, nil
	}))
}

func (h *harness) client(t *testing.T, opts ...client.Option) *client.Client {
	t.Helper()
	tr := local.New()
	_, err := registry.Install(h.reg, tr)
	require.NoError(t, err)
	return client.New(tr, opts...)
}

func TestExecute_Echo(t *testing.T) {
	h := newHarness(t)
	out, err := h.client(t).Execute(context.Background(), dsl.Proc("echo").Input(map[string]any{"v": 1}).Ref())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": 1}, out)
}

func TestExecute_NamedStageReference(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "a", map[string]any{"value": 42})
	h.returning(t, "b", "done")

	graph := dsl.Traverse(
		dsl.Proc("a").Name("a"),
		dsl.Proc("b").Input(map[string]any{"got": dsl.Ref("a.value")}),
	)

	out, err := h.client(t).Execute(context.Background(), graph.Ref())
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"value": 42}, "done"}, out)
	assert.Equal(t, map[string]any{"got": 42}, h.seen["b"])
	assert.Equal(t, []string{"a", "b"}, h.calls)
}

func TestExecute_Last(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "a", map[string]any{"result": map[string]any{"code": 7}})
	h.returning(t, "b", nil)

	graph := dsl.Traverse(
		dsl.Proc("a"),
		dsl.Proc("b").Input(map[string]any{"code": dsl.Last("result", "code"), "all": dsl.Last()}),
	)

	_, err := h.client(t).Execute(context.Background(), graph.Ref())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"code": 7,
		"all":  map[string]any{"result": map[string]any{"code": 7}},
	}, h.seen["b"])
}

func TestExecute_LastBeforeAnyStage(t *testing.T) {
	h := newHarness(t)
	_, err := h.client(t).Execute(context.Background(), dsl.Proc("echo").Input(dsl.Last()).Ref())
	require.ErrorIs(t, err, domain.ErrUnresolvedRef)
	assert.Contains(t, err.Error(), "no stage has completed yet")
}

func TestExecute_UnknownStage(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "b", nil)

	graph := dsl.Traverse(dsl.Proc("b").Input(map[string]any{"x": dsl.Ref("ghost.value")}))
	_, err := h.client(t).Execute(context.Background(), graph.Ref())
	require.ErrorIs(t, err, domain.ErrUnresolvedRef)
	assert.Contains(t, err.Error(), `unknown stage "ghost"`)
	assert.Empty(t, h.calls)
}

func TestExecute_ForwardReference(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "a", map[string]any{"value": 1})
	h.returning(t, "b", nil)

	graph := dsl.Traverse(
		dsl.Proc("b").Input(map[string]any{"x": dsl.Ref("a.value")}),
		dsl.Proc("a").Name("a"),
	)
	_, err := h.client(t).Execute(context.Background(), graph.Ref())
	require.ErrorIs(t, err, domain.ErrUnresolvedRef)
	assert.Contains(t, err.Error(), `stage "a" has not executed yet`)
}

func TestExecute_MissingProperty(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "a", map[string]any{"value": 1})

	graph := dsl.Traverse(
		dsl.Proc("a").Name("a"),
		dsl.Proc("echo").Input(dsl.Ref("a.other.deep")),
	)
	_, err := h.client(t).Execute(context.Background(), graph.Ref())
	require.ErrorIs(t, err, domain.ErrUnresolvedRef)
	assert.Equal(t, `unresolved reference "a.other.deep": property "other" not found`, err.Error())
}

func TestExecute_UnknownProcedure(t *testing.T) {
	h := newHarness(t)
	_, err := h.client(t).Execute(context.Background(), dsl.Proc("no", "such").Ref())
	require.ErrorIs(t, err, domain.ErrProcedureNotFound)
	assert.Equal(t, "procedure not found: no.such", err.Error())
}

func TestExecute_HandlerErrorIsUnchanged(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("boom")
	require.NoError(t, h.reg.Register(domain.NewPath("fail"), func(ctx context.Context, input any, call *registry.CallContext) (any, error) {
		return nil, boom
	}))

	_, err := h.client(t).Execute(context.Background(), dsl.Traverse(dsl.Proc("fail")).Ref())
	assert.Same(t, boom, err)
}

func TestExecute_ImmediateNestedRunsDepthFirst(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "inner", "i")
	h.returning(t, "sibling", "s")
	h.returning(t, "outer", "o")

	ref := dsl.Proc("outer").Input(map[string]any{
		"list": []any{
			dsl.Proc("inner").Ref(),
			dsl.Proc("sibling").When(domain.WhenImmediate).Ref(),
		},
	}).Ref()

	out, err := h.client(t).Execute(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "o", out)
	assert.Equal(t, []string{"inner", "sibling", "outer"}, h.calls)
	assert.Equal(t, map[string]any{"list": []any{"i", "s"}}, h.seen["outer"])
}

func TestExecute_NeverIsInertData(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "side", "effect")

	inert := dsl.Proc("side").When(domain.WhenNever).Ref()
	out, err := h.client(t).Execute(context.Background(), dsl.Proc("echo").Input(map[string]any{"ref": inert}).Ref())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ref": inert}, out)
	assert.Empty(t, h.calls)

	// dag.traverse skips it too.
	out, err = h.client(t).Execute(context.Background(), dsl.Traverse(inert, "kept").Ref())
	require.NoError(t, err)
	assert.Equal(t, []any{"kept"}, out)
	assert.Empty(t, h.calls)
}

func TestExecute_NeverRootIsNoop(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "side", "effect")

	out, err := h.client(t).Execute(context.Background(), dsl.Proc("side").When(domain.WhenNever).Ref())
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, h.calls)
}

func TestExecute_ParentRunsOnlySelectedBranch(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "check", map[string]any{"ok": true})
	h.returning(t, "yes", "took then")
	h.returning(t, "no", "took else")

	graph := dsl.Traverse(
		dsl.Proc("check").Name("check"),
		dsl.Conditional(dsl.Ref("check.ok"), dsl.Proc("yes"), dsl.Proc("no")),
	)

	out, err := h.client(t).Execute(context.Background(), graph.Ref())
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"ok": true}, "took then"}, out)
	assert.Equal(t, []string{"check", "yes"}, h.calls)
}

func TestExecute_DeferredStagesResolveInOrder(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "a", map[string]any{"value": 42})
	h.returning(t, "b", "done")

	// With $parent, traverse runs each entry itself, so b can see a.
	graph := dsl.Traverse(
		dsl.Proc("a").Name("a").When(domain.WhenParent),
		dsl.Proc("b").Input(map[string]any{"got": dsl.Ref("a.value")}).When("deploy"),
	)

	out, err := h.client(t).Execute(context.Background(), graph.Ref())
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"value": 42}, "done"}, out)
	assert.Equal(t, map[string]any{"got": 42}, h.seen["b"])
	assert.Equal(t, "deploy", h.md["b"][domain.KeyWhen])
	assert.NotEmpty(t, h.md["b"][domain.KeyParent])
}

func TestExecute_DuplicateNameLastWins(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "first", 1)
	h.returning(t, "second", 2)

	graph := dsl.Traverse(
		dsl.Proc("first").Name("dup"),
		dsl.Proc("second").Name("dup"),
		dsl.Proc("echo").Input(dsl.Ref("dup")),
	)
	out, err := h.client(t).Execute(context.Background(), graph.Ref())
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 2}, out)
}

func TestExecute_DoesNotMutateInput(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "a", map[string]any{"value": 1})

	inner := map[string]any{"x": dsl.Ref("a.value")}
	visit := []any{dsl.Proc("a").Name("a").Ref(), dsl.Proc("echo").Input(inner).Ref()}
	root := domain.ProcedureRef{Proc: procs.TraversePath, Input: map[string]any{"visit": visit}}

	_, err := h.client(t).Execute(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, dsl.Ref("a.value"), inner["x"])
	assert.IsType(t, domain.ProcedureRef{}, visit[0])
}

func TestExecute_TypedSlices(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "a", "A")

	ref := dsl.Proc("echo").Input(map[string]any{
		"procs": []domain.ProcedureRef{dsl.Proc("a").Name("a").Ref()},
		"refs":  []domain.OutputRef{dsl.Ref("a"), dsl.Last()},
		"ptr":   &domain.OutputRef{Ref: "a"},
	}).Ref()

	out, err := h.client(t).Execute(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"procs": []any{"A"},
		"refs":  []any{"A", "A"},
		"ptr":   "A",
	}, out)
}

type stepInput struct {
	V     any `json:"v"`
	Count int `json:"count"`
}

func TestExecute_RefsInsideTypedContainers(t *testing.T) {
	tests := []struct {
		name  string
		input func(ref domain.OutputRef) any
		want  any
	}{
		{
			name:  "struct",
			input: func(ref domain.OutputRef) any { return stepInput{V: ref, Count: 3} },
			want:  map[string]any{"v": 42, "count": float64(3)},
		},
		{
			name:  "pointer to struct",
			input: func(ref domain.OutputRef) any { return &stepInput{V: ref} },
			want:  map[string]any{"v": 42, "count": float64(0)},
		},
		{
			name:  "slice of maps",
			input: func(ref domain.OutputRef) any { return []map[string]any{{"x": ref}} },
			want:  []any{map[string]any{"x": 42}},
		},
		{
			name:  "map of output refs",
			input: func(ref domain.OutputRef) any { return map[string]domain.OutputRef{"k": ref} },
			want:  map[string]any{"k": 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.returning(t, "a", map[string]any{"value": 42})
			h.returning(t, "b", "done")

			graph := dsl.Traverse(
				dsl.Proc("a").Name("a"),
				dsl.WithInput(dsl.Proc("b"), tt.input(dsl.Ref("a.value"))),
			)
			_, err := h.client(t).Execute(context.Background(), graph.Ref())
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.seen["b"])
		})

		t.Run(tt.name+" undeclared", func(t *testing.T) {
			h := newHarness(t)
			h.returning(t, "b", "done")

			ref := dsl.WithInput(dsl.Proc("b"), tt.input(dsl.Ref("nope.value"))).Ref()
			_, err := h.client(t).Execute(context.Background(), ref)
			require.ErrorIs(t, err, domain.ErrUnresolvedRef)
			assert.Contains(t, err.Error(), `unknown stage "nope"`)
			assert.Empty(t, h.calls)
		})
	}
}

func TestExecute_StructWithoutRefsKeepsType(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "b", nil)

	in := stepInput{V: "plain", Count: 1}
	_, err := h.client(t).Execute(context.Background(), dsl.WithInput(dsl.Proc("b"), in).Ref())
	require.NoError(t, err)
	assert.Equal(t, in, h.seen["b"])
}

func TestExecute_ProcedureRefInsideStruct(t *testing.T) {
	type wrapper struct {
		Step domain.ProcedureRef `json:"step"`
	}

	h := newHarness(t)
	h.returning(t, "a", map[string]any{"value": 42})
	h.returning(t, "b", "B")
	h.returning(t, "c", "C")

	graph := dsl.Traverse(
		dsl.WithInput(dsl.Proc("b"), wrapper{Step: dsl.Proc("a").Name("inner").Ref()}),
		dsl.Proc("c").Input(map[string]any{"x": dsl.Ref("inner.value")}),
	)
	_, err := h.client(t).Execute(context.Background(), graph.Ref())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, h.calls)
	assert.Equal(t, map[string]any{"step": map[string]any{"value": 42}}, h.seen["b"])
	assert.Equal(t, map[string]any{"x": 42}, h.seen["c"])
}

func TestExecute_DecodedWireGraph(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "a", map[string]any{"value": 42})

	graph := dsl.Traverse(
		dsl.Proc("a").Name("a"),
		dsl.Proc("echo").Input(map[string]any{"x": dsl.Ref("a.value")}),
	).Ref()
	want, err := h.client(t).Execute(context.Background(), graph)
	require.NoError(t, err)

	data, err := json.Marshal(graph)
	require.NoError(t, err)
	var decoded domain.ProcedureRef
	require.NoError(t, json.Unmarshal(data, &decoded))

	got, err := h.client(t).Execute(context.Background(), decoded)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []any{map[string]any{"value": 42}, map[string]any{"x": 42}}, got)

	bad := `{"$proc":["dag","traverse"],"input":{"visit":[
		{"$proc":["echo"],"$name":"a"},
		{"$proc":["echo"],"input":{"x":{"$ref":"nope.value"}}}
	]}}`
	require.NoError(t, json.Unmarshal([]byte(bad), &decoded))
	_, err = h.client(t).Execute(context.Background(), decoded)
	assert.ErrorIs(t, err, domain.ErrUnresolvedRef)
}

func TestExecute_HooksAndMetadata(t *testing.T) {
	h := newHarness(t)
	h.returning(t, "a", nil)

	var events []domain.EventType
	hooks := domain.LifecycleHooks{
		OnStageStart:    func(ctx context.Context, e *domain.StageEvent) { events = append(events, e.Type) },
		OnStageComplete: func(ctx context.Context, e *domain.StageEvent) { events = append(events, e.Type) },
		OnStageFail:     func(ctx context.Context, e *domain.StageEvent) { events = append(events, e.Type) },
	}

	n := 0
	ids := client.WithIDGenerator(func() string {
		n++
		return string(rune('0' + n))
	})

	c := h.client(t, client.WithHooks(hooks), ids)
	_, err := c.Execute(context.Background(), dsl.Traverse(dsl.Proc("a").Name("stage-a").When(domain.WhenParent)).Ref())
	require.NoError(t, err)

	assert.Equal(t, []domain.EventType{
		domain.EventStageStart, // dag.traverse
		domain.EventStageStart, // a
		domain.EventStageComplete,
		domain.EventStageComplete,
	}, events)
	assert.Equal(t, map[string]string{
		domain.KeyInvocationID: "2",
		domain.KeyParent:       "1",
		domain.KeyStage:        "stage-a",
		domain.KeyWhen:         "$parent",
	}, h.md["a"])

	events = nil
	_, err = c.Execute(context.Background(), dsl.Proc("missing").Ref())
	require.Error(t, err)
	assert.Equal(t, []domain.EventType{domain.EventStageStart, domain.EventStageFail}, events)
}

func TestExecute_EmptyPath(t *testing.T) {
	h := newHarness(t)
	_, err := h.client(t).Execute(context.Background(), domain.ProcedureRef{})
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

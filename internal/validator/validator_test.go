package validator

import (
	"testing"

	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func known(paths ...string) Lookup {
	set := make(map[string]bool)
	for _, p := range paths {
		set[p] = true
	}
	return func(path domain.ProcedurePath) bool {
		return set[path.String()]
	}
}

func kinds(issues []Issue) []Kind {
	var out []Kind
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestValidateGraph_Valid(t *testing.T) {
	graph := dsl.Traverse(
		dsl.Proc("a").Name("a"),
		dsl.Proc("b").Input(map[string]any{"x": dsl.Ref("a.value"), "y": dsl.Last()}),
		dsl.Conditional(dsl.Ref("a.ok"), dsl.Proc("b"), dsl.Proc("b").When(domain.WhenNever)),
	)
	assert.NoError(t, ValidateGraph(graph.Ref(), known("a", "b", "dag.traverse", "client.conditional")))
}

func TestCheck_ForwardAndUnknownRefs(t *testing.T) {
	graph := dsl.Traverse(
		dsl.Proc("b").Input(map[string]any{"x": dsl.Ref("a.value"), "y": dsl.Ref("ghost")}),
		dsl.Proc("a").Name("a"),
	)
	issues := Check(graph.Ref(), nil)
	assert.Equal(t, []Kind{KindForwardRef, KindUnknownStage}, kinds(issues))
	assert.Equal(t, "a", issues[0].Stage)
}

func TestCheck_DeferredStagesRunInOrder(t *testing.T) {
	graph := dsl.Traverse(
		dsl.Proc("a").Name("a").When(domain.WhenParent),
		dsl.Proc("b").Input(dsl.Ref("a")).When("deploy"),
	)
	assert.Empty(t, Check(graph.Ref(), nil))
}

func TestCheck_LastBeforeAnyStage(t *testing.T) {
	issues := Check(dsl.Proc("echo").Input(dsl.Last()).Ref(), nil)
	assert.Equal(t, []Kind{KindLastBeforeStage}, kinds(issues))
}

func TestCheck_DuplicatesAndUnknownProcedures(t *testing.T) {
	graph := dsl.Traverse(
		dsl.Proc("a").Name("dup"),
		dsl.Proc("missing").Name("dup"),
	)
	issues := Check(graph.Ref(), known("a", "dag.traverse"))
	assert.Equal(t, []Kind{KindDuplicateName, KindUnknownProcedure}, kinds(issues))

	err := ValidateGraph(graph.Ref(), known("a", "dag.traverse"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 2 errors")
	assert.Contains(t, err.Error(), "procedure not found: missing")
}

func TestCheck_NeverIsIgnored(t *testing.T) {
	graph := dsl.Proc("echo").Input(map[string]any{
		"inert": dsl.Proc("missing").Input(dsl.Ref("ghost")).When(domain.WhenNever),
	})
	assert.Empty(t, Check(graph.Ref(), known("echo")))
}

func TestCheck_EmptyPath(t *testing.T) {
	issues := Check(domain.ProcedureRef{}, known())
	assert.Equal(t, []Kind{KindInvalidPath}, kinds(issues))
}

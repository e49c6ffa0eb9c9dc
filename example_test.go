package procflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/procflow"
	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/dsl"
	"github.com/aretw0/procflow/pkg/procs"
	"github.com/aretw0/procflow/pkg/registry"
	"github.com/aretw0/procflow/pkg/runner"
)

// ExampleDriver_Run wires two stages: the second one reads a property of the first.
func ExampleDriver_Run() {
	reg := registry.New()
	if err := procs.Register(reg); err != nil {
		log.Fatal(err)
	}
	_ = reg.Register(domain.NewPath("ci", "build"), func(ctx context.Context, input any, call *registry.CallContext) (any, error) {
		return map[string]any{"success": true, "artifact": "app.tar"}, nil
	})

	graph := dsl.Traverse(
		dsl.Proc("ci", "build").Name("build"),
		dsl.Proc("echo").Input(map[string]any{
			"ok":       dsl.Ref("build.success"),
			"artifact": dsl.Last("artifact"),
		}),
	)

	driver := procflow.New(reg)
	result, err := driver.Run(context.Background(), graph.Ref(), procflow.WithPrint(false))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(result.([]any)[1])
	// Output: map[artifact:app.tar ok:true]
}

// ExampleDriver_Run_conditional shows a branch that only runs when selected.
func ExampleDriver_Run_conditional() {
	reg := registry.New()
	_ = procs.Register(reg)

	graph := dsl.Conditional(false,
		dsl.Proc("echo").Input(map[string]any{"branch": "then"}),
		dsl.Proc("echo").Input(map[string]any{"branch": "else"}),
	)

	_, err := procflow.New(reg).Run(context.Background(), graph.Ref(), procflow.WithFormat(runner.FormatText))
	if err != nil {
		log.Fatal(err)
	}
	// Output: map[branch:else]
}

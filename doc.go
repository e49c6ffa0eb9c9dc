/*
Package procflow executes call graphs of registered procedures.

A call graph is plain data: a procedure reference ($proc) with an input that may
embed other procedure references and output references ($ref) to stages that
already ran. The driver installs the registry on an in-process transport, walks
the graph with a client that resolves every output reference against the
completed stages, and returns (and by default prints) the final value.

# Concept

  - Stage: one procedure reference. Naming it ($name) makes its output
    addressable as "<name>.<property...>".
  - $last: the output of the most recently completed stage, named or not.
  - $when: controls when a nested reference runs. Absent or $immediate runs it
    while resolving the input of its parent, $never keeps it as inert data, and
    $parent (or any other context name) hands it to the enclosing procedure.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/procflow"
		"github.com/aretw0/procflow/pkg/dsl"
		"github.com/aretw0/procflow/pkg/registry"
	)

	func main() {
		_ = procflow.Register(dsl.Proc("ci", "build").Path(),
			func(ctx context.Context, input any, call *registry.CallContext) (any, error) {
				return map[string]any{"success": true}, nil
			})

		graph := dsl.Traverse(
			dsl.Proc("ci", "build").Name("build"),
			dsl.Proc("echo").Input(map[string]any{"ok": dsl.Ref("build.success")}),
		)

		if _, err := procflow.Run(context.Background(), graph.Ref()); err != nil {
			log.Fatal(err)
		}
	}
*/
package procflow

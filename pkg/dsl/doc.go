/*
Package dsl provides a Go DSL for programmatically describing procflow call graphs.

Procedure references are built with immutable, fluent builders instead of
hand-written JSON documents. Each method returns a new builder, so the output of
Ref is always a pure function of the calls made so far.

Example usage:

	package main

	import (
		"context"

		"github.com/aretw0/procflow"
		"github.com/aretw0/procflow/pkg/dsl"
	)

	func main() {
		build := dsl.Proc("ci", "build").
			Input(map[string]any{"target": "./..."}).
			Name("build")

		notify := dsl.Proc("chat", "post").
			Input(map[string]any{"ok": dsl.Ref("build.success")})

		graph := dsl.Traverse(build, notify)

		// Executes both stages in order and prints the result as JSON.
		_, _ = procflow.Run(context.Background(), graph.Ref())
	}
*/
package dsl

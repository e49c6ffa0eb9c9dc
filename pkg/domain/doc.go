/*
Package domain contains the reference model shared by every procflow component.

It defines the wire-level values of a call graph and the grammar used to resolve
output references. The package is pure data and performs no I/O.

# Key Entities

  - ProcedurePath: the segments identifying a registered procedure.
  - ProcedureRef: one stage of a call graph ($proc, input, $name, $when).
  - OutputRef: a declarative pointer ({"$ref": "stage.prop"}) to another stage's output.
  - Selector: the parsed form of an OutputRef, either a named stage or $last.
  - LifecycleHooks: callbacks fired around every executed stage.

ProcedureRef and OutputRef decode from JSON or YAML directly; Lift does the same
for values already decoded into generic maps and slices.
*/
package domain

/*
Package ports defines the driven ports (interfaces) between the procflow core and its collaborators.

These interfaces decouple reference resolution from the way calls are actually
dispatched, so the in-process transport can be swapped for another implementation.

# Key Interfaces

  - Transport: registers method handlers and dispatches resolved requests to them.
  - Executor: runs a (possibly deferred) procedure reference in an existing resolution scope.
  - Middleware: wraps method handlers with cross-cutting behavior (metrics, logging).
*/
package ports

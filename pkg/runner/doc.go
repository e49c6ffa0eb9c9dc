/*
Package runner renders the result of a call graph.

Two formats are supported:

  - json: the value pretty-printed as a JSON document (two-space indent).
  - text: the value's default string representation, as written by fmt.

# Usage

	p, err := runner.NewPrinter(runner.FormatJSON, os.Stdout)
	if err != nil {
		return err
	}
	return p.Print(result)
*/
package runner

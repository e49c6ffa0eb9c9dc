package procflow

import _ "embed"

// Version is the release of the procflow module.
//
//go:embed VERSION
var Version string

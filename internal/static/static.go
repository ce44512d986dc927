// Package static holds files embedded into the binary.
package static

import _ "embed"

// APIMD describes the HTTP API for humans and agents.
//
//go:embed api.md
var APIMD []byte

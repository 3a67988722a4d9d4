// Package fixture embeds the default seed document and its schema.
package fixture

import _ "embed"

// Data is the bundled seed document.
//
//go:embed data.json
var Data []byte

// Schema is the JSON Schema every seed document must satisfy.
//
//go:embed schema.json
var Schema string

// Package api serves the embedded OpenAPI description of the read API.
package api

import _ "embed"

//go:embed openapi.json
var OpenAPISpec []byte

func Spec() []byte {
	return OpenAPISpec
}

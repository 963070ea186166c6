// Package docs embeds the OpenAPI description of the admin JSON API.
package docs

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte

// Package docs provides generated OpenAPI documentation.
//
// Primer API
//
//	@title			Primer API
//	@version		1.0
//	@description	Textbook catalog extraction and knowledge point segmentation API.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/primer
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/primer/serve.go -o ./swagger --parseDependency --parseInternal

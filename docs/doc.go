// Package docs provides generated OpenAPI documentation.
//
// Mathengine API
//
//	@title			Mathengine API
//	@version		1.0
//	@description	Math animation engine API for generating, answering, narrating, and ingesting math content.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/MRenAIAgent/math-content-engine-sub000
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/mathengine/serve.go -o ./swagger --parseDependency --parseInternal

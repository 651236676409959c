// Package docs provides Swagger documentation for the API.
package docs

// @title Inkfold Composer API
// @version 1.0
// @description API for generating long-form documents and multi-chapter books from short briefs
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://www.inkfold.io/support
// @contact.email support@inkfold.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https

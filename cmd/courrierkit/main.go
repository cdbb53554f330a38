// filepath: cmd/courrierkit/main.go
package main

import (
	"courrierkit/internal/cli"

	// Import docs for Swagger
	_ "courrierkit/docs"
)

// @title courrierkit dashboard agent
// @version 0.3.0
// @description Read-only dashboard agent over the courrier SQLite database.
// @BasePath /
// @schemes http

func main() {
	// Delegate all execution to the CLI package
	cli.Execute()
}

package main

import (
	"os"

	"notepilot/backend/internal/app"
)

// @title           NotePilot Copilot API
// @version         1.0
// @description     Streaming AI copilot for a read-only notes collection.

// @BasePath  /api
func main() {
	os.Exit(app.Run())
}

package main

import (
	"os"
)

// @title Coaching Platform API
// @version 1.0
// @description API for athletes' and coaches' workout plans and per-language UI defaults.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}

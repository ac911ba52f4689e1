package main

import (
	"github.com/joho/godotenv"

	"github.com/bidascore/bidascore-go/internal/cli"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	cli.Execute()
}

package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/sdrasco/freedact/internal/cmd"
)

func main() {
	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	os.Exit(cmd.Execute())
}

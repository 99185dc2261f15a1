package main

import (
	"github.com/joho/godotenv"

	"github.com/khrees2412/coldreach/cmd"
)

func main() {
	// .env is optional; COLDREACH_* variables override the config file
	_ = godotenv.Load()

	cmd.Execute()
}

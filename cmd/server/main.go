package main

import (
	"log"

	"foodanalyzer/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env file; real environment variables take precedence.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

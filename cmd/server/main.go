package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"visionserver/internal/app"

	"github.com/joho/godotenv"
)

// Usage: server [configFile]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	var configFile string
	if len(os.Args) >= 2 {
		configFile = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, configFile)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	err = application.Run(ctx)
	application.Close()
	if err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"garden-brawl/server/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.ConfigFromEnv()); err != nil {
		log.Fatalf("%v", err)
	}
}

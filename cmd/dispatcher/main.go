package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ridehail/internal/app"
	"ridehail/internal/config"
	"ridehail/internal/events"
)

func main() {
	cfg := config.Load()

	nrApp := app.NewNewRelicApp(cfg.NewRelic)
	if nrApp != nil {
		defer nrApp.Shutdown(5 * time.Second)
	}

	broker, err := events.DialAMQP(cfg.Events.URL, cfg.Events.Exchange, cfg.Events.ConnectRetries)
	if err != nil {
		log.Fatalf("failed to connect event broker: %v", err)
	}
	defer broker.Close()

	dispatcher := events.NewDispatcher(broker, events.DefaultGroups(), nrApp)
	events.RegisterDefaultHandlers(dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting dispatcher on exchange %s", cfg.Events.Exchange)
	if err := dispatcher.Run(ctx); err != nil {
		log.Printf("dispatcher error: %v", err)
		return
	}

	log.Println("Dispatcher exited")
}

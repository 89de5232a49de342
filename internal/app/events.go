package app

import (
	"fmt"
	"log"

	"ridehail/internal/config"
	"ridehail/internal/events"
)

// NewEventPublisher connects the event sink to RabbitMQ. With events
// disabled it returns a publisher whose every publish is a successful no-op.
func NewEventPublisher(cfg config.EventsConfig) (*events.Publisher, error) {
	if !cfg.Enabled {
		log.Println("[EVENTS] publishing disabled")
		return events.NewDisabledPublisher(), nil
	}

	broker, err := events.DialAMQP(cfg.URL, cfg.Exchange, cfg.ConnectRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to connect event broker: %w", err)
	}

	return events.NewPublisher(broker, cfg.PublishTimeout), nil
}

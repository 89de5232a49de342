package app

import (
	"log"

	"github.com/newrelic/go-agent/v3/newrelic"

	"ridehail/internal/config"
)

// NewNewRelicApp starts the APM agent. It returns nil when New Relic is
// disabled, unlicensed or fails to start; every consumer treats nil as off.
func NewNewRelicApp(cfg config.NewRelicConfig) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		log.Printf("failed to initialize New Relic: %v", err)
		return nil
	}

	log.Printf("New Relic enabled: app=%s", cfg.AppName)
	return nrApp
}

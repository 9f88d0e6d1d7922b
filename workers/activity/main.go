package main

import (
	"context"
	stdlog "log"
	"log/slog"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"customer-onboarding/activities"
	"customer-onboarding/bootstrap"
	"customer-onboarding/config"
	"customer-onboarding/shared"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Unable to load configuration: %v", err)
	}
	logger := log.NewStructuredLogger(slog.Default())

	// Key client.Options for production:
	//   HostPort: address of the Temporal frontend or Temporal Cloud endpoint.
	//   Namespace: logical isolation, e.g. "onboarding-prod" and "onboarding-staging".
	//   ConnectionOptions.TLS: mTLS config required for Temporal Cloud.
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
	})
	if err != nil {
		stdlog.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	deps, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		stdlog.Fatalf("Unable to initialize dependencies: %v", err)
	}
	defer deps.Close()

	// MaxConcurrentActivityExecutionSize caps parallel uploads on this worker.
	// Tune it down to protect a rate-limited upstream API.
	w := worker.New(c, shared.ActivityTaskQueue, worker.Options{})

	a := &activities.Activities{
		Gateway:  deps.Gateways,
		Roles:    deps.Gateways,
		Uploader: deps.Uploader,
		Journal:  deps.Journal,
		Notifier: deps.Notifier,
	}
	w.RegisterActivity(a)

	stdlog.Println("Starting activity worker...")
	if err := w.Run(worker.InterruptCh()); err != nil {
		stdlog.Fatalf("Unable to start worker: %v", err)
	}
}

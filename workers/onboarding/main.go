package main

import (
	stdlog "log"
	"log/slog"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"customer-onboarding/config"
	"customer-onboarding/shared"
	"customer-onboarding/workflows"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadTemporalConfig()
	if err != nil {
		stdlog.Fatalf("Unable to load configuration: %v", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    log.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		stdlog.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	// Workflow tasks do no I/O, so the default worker options are enough.
	// StickyScheduleToStartTimeout decides how long a task waits for the worker
	// that has the run cached before another worker replays it from history.
	w := worker.New(c, shared.OnboardingWorkflowTaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.OnboardingWorkflow)

	stdlog.Println("Starting onboarding workflow worker...")
	if err := w.Run(worker.InterruptCh()); err != nil {
		stdlog.Fatalf("Unable to start worker: %v", err)
	}
}

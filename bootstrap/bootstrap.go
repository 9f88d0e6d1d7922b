// Package bootstrap builds the remote clients and stores shared by the HTTP
// server and the activity worker.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/log"

	"customer-onboarding/authclient"
	"customer-onboarding/config"
	"customer-onboarding/events"
	"customer-onboarding/gateways"
	"customer-onboarding/journal"
	"customer-onboarding/onboarding"
	"customer-onboarding/upload"
)

// Dependencies are the collaborators of an onboarding run.
type Dependencies struct {
	Gateways *gateways.Client
	Uploader *upload.Pipeline
	Journal  journal.Store
	// Notifier is nil when no broker is configured.
	Notifier onboarding.Notifier

	closers []func()
}

// New connects every configured backend. Without DATABASE_URL the journal is
// kept in memory; without RABBITMQ_URL no events are published. A broker that
// cannot be reached is logged and skipped, a database that cannot be reached
// is an error.
func New(ctx context.Context, cfg *config.Config, logger log.Logger) (*Dependencies, error) {
	d := &Dependencies{}

	timeout := cfg.RequestTimeout()
	refresher := authclient.NewHTTPRefresher(cfg.AuthRefreshURL, cfg.AuthRefreshToken, &http.Client{Timeout: timeout})
	api := authclient.NewClient(cfg.APIBaseURL, refresher,
		authclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		authclient.WithLogger(logger),
	)
	d.Gateways = gateways.New(api, logger)

	// The storage leg gets its own client so the bearer credential never
	// reaches the presigned URL.
	d.Uploader = upload.NewPipeline(d.Gateways, &http.Client{Timeout: 4 * timeout}, logger)

	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, keeping the onboarding journal in memory")
		d.Journal = journal.NewMemory()
	} else {
		pool, err := newPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)

		pg := journal.NewPostgres(pool)
		if err := pg.EnsureTable(ctx); err != nil {
			d.Close()
			return nil, err
		}
		d.Journal = pg
		logger.Info("Database connection established")
	}

	if cfg.RabbitMQURL != "" {
		producer, err := events.NewProducer(cfg.RabbitMQURL, cfg.OnboardingExchange)
		if err != nil {
			logger.Warn("Failed to connect to RabbitMQ, onboarded events will not be published", "error", err)
		} else {
			d.Notifier = producer
			d.closers = append(d.closers, producer.Close)
		}
	}

	return d, nil
}

// Close releases connections in reverse order of creation.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

func newPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pgConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}
	pgConfig.MaxConns = 10
	pgConfig.MaxConnLifetime = 30 * time.Minute
	pgConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	return pool, nil
}

// Package bootstrap assembles the dependencies shared by the HTTP server and
// the Lambda function: telemetry providers, the bridged logger, customer
// storage and the customer service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	customerapp "github.com/motoshop/backend/internal/application/customer"
	"github.com/motoshop/backend/internal/infrastructure/config"
	"github.com/motoshop/backend/internal/infrastructure/logger"
	"github.com/motoshop/backend/internal/infrastructure/persistence"
	"github.com/motoshop/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const customerMeterName = "motoshop/customer"

// App holds the running dependencies. Close them with Shutdown.
type App struct {
	Config          *config.Config
	Logger          *zap.Logger
	Tracer          *telemetry.TracerProvider
	Meters          *telemetry.MeterProvider
	Storage         *persistence.Storage
	CustomerService *customerapp.CustomerService

	shutdowns []namedShutdown
}

type namedShutdown struct {
	name string
	fn   func(context.Context) error
}

// New starts telemetry, opens storage and builds the customer service.
// base is used until the OTLP log bridge is ready.
func New(ctx context.Context, cfg *config.Config, base *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: base}
	if err := app.init(ctx, base); err != nil {
		_ = app.Shutdown(context.Background())
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context, base *zap.Logger) error {
	cfg := a.Config
	tel := cfg.Telemetry

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tel.Enabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		SamplingRatio:     tel.SamplingRatio,
		ServiceName:       tel.ServiceName,
		Insecure:          tel.Insecure,
	}, base)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.Tracer = tracer
	a.onShutdown("tracer provider", tracer.Shutdown)

	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tel.Enabled && tel.MetricsEnabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ExportInterval:    tel.MetricsInterval,
		ServiceName:       tel.ServiceName,
		Insecure:          tel.Insecure,
	}, base)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.Meters = meters
	a.onShutdown("meter provider", meters.Shutdown)

	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tel.Enabled && tel.LogsEnabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ServiceName:       tel.ServiceName,
		Insecure:          tel.Insecure,
	}, base)
	if err != nil {
		return fmt.Errorf("failed to initialize log export: %w", err)
	}
	a.onShutdown("logger provider", logs.Shutdown)
	log := telemetry.NewBridgedLogger(base,
		telemetry.NewZapOTELCore(logs, tel.ServiceName, logger.ParseLevel(cfg.Log.Level)))
	a.Logger = log

	prof := cfg.Profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           prof.Enabled,
		ServerAddress:     prof.ServerAddress,
		ApplicationName:   prof.ApplicationName,
		BasicAuthUser:     prof.BasicAuthUser,
		BasicAuthPassword: prof.BasicAuthPassword,
		ProfileTypes:      prof.ProfileTypes,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to start profiler: %w", err)
	}
	a.onShutdown("profiler", func(context.Context) error { return profiler.Stop() })
	if prof.SpanProfiles && profiler.IsEnabled() && tracer.IsEnabled() {
		if err := tracer.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	storage, err := persistence.NewStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open customer storage: %w", err)
	}
	a.Storage = storage
	a.onShutdown("customer storage", func(context.Context) error { return storage.Close() })

	a.CustomerService = customerapp.NewCustomerService(storage.Customers, log)
	if meters.IsEnabled() {
		metrics, err := telemetry.NewCustomerMetrics(telemetry.CustomerMetricsConfig{
			Meter:   meters.Meter(customerMeterName),
			Logger:  log,
			Backend: storage.Driver,
		})
		if err != nil {
			return fmt.Errorf("failed to create customer metrics: %w", err)
		}
		a.CustomerService.SetCustomerMetrics(metrics)
		metrics.StartPeriodicCollection(context.WithoutCancel(ctx), storage, tel.MetricsInterval)
		a.onShutdown("customer metrics", func(context.Context) error {
			metrics.Stop()
			return nil
		})
	}
	return nil
}

func (a *App) onShutdown(name string, fn func(context.Context) error) {
	a.shutdowns = append(a.shutdowns, namedShutdown{name: name, fn: fn})
}

// Shutdown releases everything New started, in reverse order
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		s := a.shutdowns[i]
		if err := s.fn(ctx); err != nil {
			a.Logger.Error("Shutdown failed", zap.String("component", s.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	a.shutdowns = nil
	return errors.Join(errs...)
}

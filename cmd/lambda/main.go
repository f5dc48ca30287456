package main

import (
	"context"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/motoshop/backend/internal/bootstrap"
	"github.com/motoshop/backend/internal/infrastructure/config"
	"github.com/motoshop/backend/internal/infrastructure/logger"
	"github.com/motoshop/backend/internal/interfaces/lambda"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// CloudWatch expects one JSON record per line on stdout
	baseLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	app, err := bootstrap.New(context.Background(), cfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to start application", zap.Error(err))
	}
	log := app.Logger

	log.Info("Starting Motoshop customer Lambda",
		zap.String("env", cfg.App.Env),
		zap.String("storage", cfg.Storage.Driver),
	)

	handler := lambda.NewHandler(app.CustomerService, log)
	awslambda.StartWithOptions(handler.Route,
		awslambda.WithEnableSIGTERM(func() {
			if err := app.Shutdown(context.Background()); err != nil {
				log.Error("Error releasing resources", zap.Error(err))
			}
			_ = log.Sync()
		}),
	)
}

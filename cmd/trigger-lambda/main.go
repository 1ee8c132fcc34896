// Command trigger-lambda runs the triggers on AWS Lambda. Each SQS record body is one
// change event as sent by events.SQSPublisher (EVENT_QUEUE_URL).
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/zfogg/screams/backend/internal/config"
	"github.com/zfogg/screams/backend/internal/container"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	// Only /tmp is writable inside Lambda
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" || logFile == "server.log" {
		logFile = "/tmp/trigger-lambda.log"
	}
	if err := logger.Initialize(cfg.LogLevel, logFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	metrics.Initialize()

	// Writes made by a trigger are handled inline by the same invocation
	c, err := container.Build(context.Background(), cfg, container.Options{
		ServiceName: "screams-trigger-lambda",
		Bus:         container.BusSync,
	})
	if err != nil {
		logger.FatalWithFields("Failed to initialize services", err)
	}
	defer c.Cleanup(context.Background())

	lambda.Start(newSQSHandler(c.Dispatcher().Handle).Handle)
}

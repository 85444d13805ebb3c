package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"izakaya/internal/config"
	"izakaya/internal/handlers"
	"izakaya/internal/logging"
)

func main() {
	cfg := config.LoadFunctionConfig()

	logger, err := logging.NewLambdaLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	h := handlers.NewReserveHandler(logger, cfg.TracingEnabled)
	lambda.Start(h.Handle)
}

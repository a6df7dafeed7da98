// Loan scoring Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"scoring-engine/internal/bootstrap"
	"scoring-engine/internal/config"
	"scoring-engine/internal/handlers"
	"scoring-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}
	defer app.Close()

	lambda.Start(handlers.NewScoreHandler(app.Service).Handle)
}

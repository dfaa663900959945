// Command migrate provisions the DynamoDB tables and indexes for the
// current environment.
package main

import (
	"context"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"taskboard/infrastructure/config"
	"taskboard/infrastructure/persistence/schema"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("failed to load AWS config", zap.Error(err))
	}

	ddl := dynamodb.NewFromConfig(awsCfg)
	if err := schema.EnsureTables(ctx, ddl, cfg, logger); err != nil {
		logger.Fatal("failed to provision tables", zap.Error(err))
	}

	logger.Info("tables ready",
		zap.String("users", cfg.UsersTable),
		zap.String("projects", cfg.ProjectsTable),
		zap.String("notifications", cfg.NotificationsTable),
	)
}

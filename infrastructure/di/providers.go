// Package di assembles the data-access layer from configuration: one shared
// SDK client, the store client wrapper, and the four entity stores with
// their collaborators.
package di

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"taskboard/application/ports"
	"taskboard/infrastructure/activitylog"
	"taskboard/infrastructure/config"
	"taskboard/infrastructure/objectstore"
	ddbstore "taskboard/infrastructure/persistence/dynamodb"
)

// Container holds the wired stores and the resources they share.
type Container struct {
	Users         ports.UserStore
	Projects      ports.ProjectStore
	Tasks         ports.TaskStore
	Notifications ports.NotificationStore

	activity *activitylog.Logger
}

// NewContainer builds the full store stack. The avatar store is wired only
// when a bucket is configured; the stores degrade gracefully without it.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := ddbstore.NewClient(dynamodb.NewFromConfig(awsCfg))

	var avatars ports.AvatarStore
	if cfg.AvatarBucket != "" {
		avatars = objectstore.NewAvatarStore(s3.NewFromConfig(awsCfg), cfg.AvatarBucket, logger)
	}

	activity := activitylog.New(cfg.ActivityLogPath)

	return &Container{
		Users:         ddbstore.NewUserStore(client, cfg, avatars, activity, logger),
		Projects:      ddbstore.NewProjectStore(client, cfg, activity, logger),
		Tasks:         ddbstore.NewTaskStore(client, cfg, activity, logger),
		Notifications: ddbstore.NewNotificationStore(client, cfg, logger),
		activity:      activity,
	}, nil
}

// Close flushes the activity log.
func (c *Container) Close() error {
	return c.activity.Close()
}

// Package schema provisions the DynamoDB tables and indexes the stores
// depend on. It is idempotent and intended for development and test
// environments; production tables are managed out of band.
package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"taskboard/infrastructure/config"
)

// DDLClient is the subset of the SDK client table provisioning needs.
type DDLClient interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// EnsureTables creates the three tables if they do not already exist and
// waits for each to become active. An existing table is left untouched,
// including its indexes.
func EnsureTables(ctx context.Context, ddl DDLClient, cfg *config.Config, logger *zap.Logger) error {
	for _, input := range []*dynamodb.CreateTableInput{
		usersTable(cfg),
		projectsTable(cfg),
		notificationsTable(cfg),
	} {
		if err := ensureTable(ctx, ddl, input, logger); err != nil {
			return err
		}
	}
	return nil
}

func ensureTable(ctx context.Context, ddl DDLClient, input *dynamodb.CreateTableInput, logger *zap.Logger) error {
	name := aws.ToString(input.TableName)

	_, err := ddl.CreateTable(ctx, input)
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			logger.Debug("table already exists", zap.String("table", name))
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	logger.Info("table created, waiting for it to become active", zap.String("table", name))
	return waitActive(ctx, ddl, name)
}

func waitActive(ctx context.Context, ddl DDLClient, name string) error {
	for {
		out, err := ddl.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(name),
		})
		if err != nil {
			return fmt.Errorf("failed to describe table %s: %w", name, err)
		}
		if out.Table.TableStatus == types.TableStatusActive {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func usersTable(cfg *config.Config) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(cfg.UsersTable),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("userId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("username"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("userId"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(cfg.EmailIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("email"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
			{
				IndexName: aws.String(cfg.UsernameIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("username"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	}
}

// projectsTable holds the merged project partitions. The reverse membership
// index inverts (PK, SK) and projects keys only: a membership lookup needs
// nothing beyond the project id embedded in PK.
func projectsTable(cfg *config.Config) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(cfg.ProjectsTable),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("assignedTo"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("taskId"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(cfg.UserProjectsIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("SK"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("PK"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeKeysOnly},
			},
			{
				IndexName: aws.String(cfg.AssignedTasksIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("assignedTo"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
			{
				IndexName: aws.String(cfg.TaskIDIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("taskId"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	}
}

func notificationsTable(cfg *config.Config) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(cfg.NotificationsTable),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("userId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("createdAt"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("userId"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("createdAt"), KeyType: types.KeyTypeRange},
		},
	}
}

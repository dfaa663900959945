package config

import (
	"fmt"
	"os"
)

// Config holds all application configuration
type Config struct {
	Environment string

	// AWS configuration
	AWSRegion string

	// Tables
	UsersTable         string
	ProjectsTable      string
	NotificationsTable string

	// Secondary indexes
	EmailIndex         string // Users: lookup by email
	UsernameIndex      string // Users: lookup by username
	UserProjectsIndex  string // Projects: membership sort key -> project
	AssignedTasksIndex string // Projects: assignee -> task
	TaskIDIndex        string // Projects: direct task-id lookups

	// Collaborators
	AvatarBucket    string
	ActivityLogPath string

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),

		UsersTable:         getEnv("USERS_TABLE", "Users"),
		ProjectsTable:      getEnv("PROJECTS_TABLE", "Projects"),
		NotificationsTable: getEnv("NOTIFICATIONS_TABLE", "Notifications"),

		EmailIndex:         getEnv("EMAIL_INDEX", "EmailIndex"),
		UsernameIndex:      getEnv("USERNAME_INDEX", "UsernameIndex"),
		UserProjectsIndex:  getEnv("USER_PROJECTS_INDEX", "UserProjectsIndex"),
		AssignedTasksIndex: getEnv("ASSIGNED_TASKS_INDEX", "AssignedTasksIndex"),
		TaskIDIndex:        getEnv("TASK_ID_INDEX", "TaskIdIndex"),

		AvatarBucket:    getEnv("AVATAR_BUCKET", ""),
		ActivityLogPath: getEnv("ACTIVITY_LOG_PATH", "/mnt/shared/taskboard-activity.log"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.UsersTable == "" || c.ProjectsTable == "" || c.NotificationsTable == "" {
		return fmt.Errorf("table names must not be empty")
	}
	if c.Environment == "production" && c.AvatarBucket == "" {
		return fmt.Errorf("AVATAR_BUCKET is required in production")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

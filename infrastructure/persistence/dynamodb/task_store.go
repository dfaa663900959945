package dynamodb

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/application/ports"
	"taskboard/domain/entities"
	"taskboard/infrastructure/config"
	apperrors "taskboard/pkg/errors"
)

// taskPatchMask whitelists the mutable task fields. The owning project is
// part of the storage key and never changes.
var taskPatchMask = allowFields("title", "description", "status", "assignedTo", "dueDate")

// TaskStore implements ports.TaskStore. Tasks live inside their owning
// project's partition under a TASK#<id> sort key; the assignee and task-id
// indexes provide the cross-partition lookups.
type TaskStore struct {
	client        StoreClient
	table         string
	assigneeIndex string
	taskIDIndex   string
	activity      ports.ActivityLog
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(client StoreClient, cfg *config.Config, activity ports.ActivityLog, logger *zap.Logger) *TaskStore {
	return &TaskStore{
		client:        client,
		table:         cfg.ProjectsTable,
		assigneeIndex: cfg.AssignedTasksIndex,
		taskIDIndex:   cfg.TaskIDIndex,
		activity:      activity,
		validate:      validator.New(),
		logger:        logger,
	}
}

var _ ports.TaskStore = (*TaskStore)(nil)

// Create writes the task into its project's partition with a single put.
// The assignee, if any, is stored as given; membership in the project is
// not checked.
func (s *TaskStore) Create(ctx context.Context, in ports.CreateTaskInput) (*entities.Task, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	now := nowISO()
	task := &entities.Task{
		TaskID:      uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		ProjectID:   in.ProjectID,
		AssignedTo:  in.AssignedTo,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	item, err := encodeTask(task)
	if err != nil {
		return nil, err
	}
	if err := s.client.Put(ctx, s.table, item); err != nil {
		s.logger.Error("failed to create task",
			zap.Error(err),
			zap.String("projectId", in.ProjectID),
		)
		return nil, err
	}

	s.logger.Info("task created",
		zap.String("taskId", task.TaskID),
		zap.String("projectId", task.ProjectID),
	)
	s.record("task_created", map[string]any{"taskId": task.TaskID, "projectId": task.ProjectID})
	return task, nil
}

// GetByProject returns every task in the project's partition via a
// sort-key prefix query. Metadata and membership records never match the
// prefix, so the result is tasks only.
func (s *TaskStore) GetByProject(ctx context.Context, projectID string) ([]entities.Task, error) {
	items, err := s.client.QueryPartition(ctx, s.table, attrPK, projectPK(projectID), attrSK, taskKeyPrefix, true)
	if err != nil {
		return nil, err
	}
	return decodeTasks(items)
}

// GetByAssignee queries the assignee index across all projects.
func (s *TaskStore) GetByAssignee(ctx context.Context, userID string) ([]entities.Task, error) {
	items, err := s.client.QueryIndex(ctx, s.table, s.assigneeIndex, "assignedTo", userID)
	if err != nil {
		return nil, err
	}
	return decodeTasks(items)
}

// GetByID resolves a task by id alone through the task-id index. Returns
// (nil, nil) when no task matches.
func (s *TaskStore) GetByID(ctx context.Context, taskID string) (*entities.Task, error) {
	items, err := s.client.QueryIndex(ctx, s.table, s.taskIDIndex, "taskId", taskID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return decodeTask(items[0])
}

// FindByIDScan resolves a task by id with a full-table scan. Cost is
// O(table size) regardless of selectivity: this is a development-only
// fallback kept for parity, not a lookup path. Use GetByID.
func (s *TaskStore) FindByIDScan(ctx context.Context, taskID string) (*entities.Task, error) {
	s.logger.Warn("resolving task by id via full-table scan", zap.String("taskId", taskID))
	items, err := s.client.Scan(ctx, s.table, "taskId", taskID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return decodeTask(items[0])
}

// Update patches the task at (projectId, taskId), whitelisted to the
// mutable fields. An effectively empty patch is a read-through.
func (s *TaskStore) Update(ctx context.Context, projectID, taskID string, patch map[string]any) (*entities.Task, error) {
	set, recognized, err := taskPatchMask.compile(patch, nowISO())
	if err != nil {
		return nil, err
	}
	if recognized == 0 {
		s.logger.Debug("task patch has no mutable fields, reading through",
			zap.String("projectId", projectID),
			zap.String("taskId", taskID),
		)
		return s.getByKey(ctx, projectID, taskID)
	}

	newItem, err := s.client.Update(ctx, s.table, taskKey(projectID, taskID), set, true)
	if err == ErrConditionFailed {
		return nil, apperrors.NewNotFoundError("task")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("task updated",
		zap.String("taskId", taskID),
		zap.String("projectId", projectID),
		zap.Int("fields", recognized),
	)
	return decodeTask(newItem)
}

// Delete removes the task with a single delete on its full key.
func (s *TaskStore) Delete(ctx context.Context, projectID, taskID string) error {
	if err := s.client.Delete(ctx, s.table, taskKey(projectID, taskID)); err != nil {
		return err
	}
	s.logger.Debug("task deleted", zap.String("taskId", taskID), zap.String("projectId", projectID))
	return nil
}

func (s *TaskStore) getByKey(ctx context.Context, projectID, taskID string) (*entities.Task, error) {
	item, err := s.client.Get(ctx, s.table, taskKey(projectID, taskID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return decodeTask(item)
}

func (s *TaskStore) record(event string, fields map[string]any) {
	if s.activity != nil {
		s.activity.Record(event, fields)
	}
}

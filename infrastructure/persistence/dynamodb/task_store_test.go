package dynamodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskboard/application/ports"
	"taskboard/domain/entities"
	apperrors "taskboard/pkg/errors"
)

func newTestTaskStore(fake *fakeStore) *TaskStore {
	return NewTaskStore(fake, testConfig(), nil, zap.NewNop())
}

func TestTaskStoreCreateAndGetByProject(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStore()
	store := newTestTaskStore(fake)
	projects := newTestProjectStore(fake)

	project, err := projects.Create(ctx, ports.CreateProjectInput{Name: "apollo", CreatedBy: "u1", Members: []string{"u2"}})
	require.NoError(t, err)

	created, err := store.Create(ctx, ports.CreateTaskInput{
		Title:      "design the wire format",
		Status:     entities.TaskStatusPending,
		ProjectID:  project.ProjectID,
		AssignedTo: "u2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.TaskID)
	assert.Equal(t, project.ProjectID, created.ProjectID)

	_, err = store.Create(ctx, ports.CreateTaskInput{
		Title:     "unrelated",
		Status:    entities.TaskStatusPending,
		ProjectID: "other-project",
	})
	require.NoError(t, err)

	// Metadata and membership share the partition but never decode as
	// tasks; the other project's task is in another partition entirely.
	tasks, err := store.GetByProject(ctx, project.ProjectID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.TaskID, tasks[0].TaskID)
}

func TestTaskStoreCreateValidation(t *testing.T) {
	store := newTestTaskStore(newFakeStore())

	_, err := store.Create(context.Background(), ports.CreateTaskInput{
		Title:     "bad status",
		Status:    "someday",
		ProjectID: "p1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTaskStoreGetByAssignee(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(newFakeStore())

	for _, projectID := range []string{"p1", "p2"} {
		_, err := store.Create(ctx, ports.CreateTaskInput{
			Title:      "assigned",
			Status:     entities.TaskStatusPending,
			ProjectID:  projectID,
			AssignedTo: "u1",
		})
		require.NoError(t, err)
	}
	_, err := store.Create(ctx, ports.CreateTaskInput{
		Title:      "someone else's",
		Status:     entities.TaskStatusPending,
		ProjectID:  "p1",
		AssignedTo: "u2",
	})
	require.NoError(t, err)

	tasks, err := store.GetByAssignee(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestTaskStoreGetByID(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(newFakeStore())

	created, err := store.Create(ctx, ports.CreateTaskInput{
		Title:     "findable",
		Status:    entities.TaskStatusPending,
		ProjectID: "p1",
	})
	require.NoError(t, err)

	found, err := store.GetByID(ctx, created.TaskID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "p1", found.ProjectID)

	missing, err := store.GetByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTaskStoreFindByIDScan(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(newFakeStore())

	created, err := store.Create(ctx, ports.CreateTaskInput{
		Title:     "findable",
		Status:    entities.TaskStatusPending,
		ProjectID: "p1",
	})
	require.NoError(t, err)

	found, err := store.FindByIDScan(ctx, created.TaskID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.TaskID, found.TaskID)

	missing, err := store.FindByIDScan(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTaskStoreUpdateWhitelist(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(newFakeStore())

	created, err := store.Create(ctx, ports.CreateTaskInput{
		Title:     "original",
		Status:    entities.TaskStatusPending,
		ProjectID: "p1",
	})
	require.NoError(t, err)

	updated, err := store.Update(ctx, "p1", created.TaskID, map[string]any{
		"status":     string(entities.TaskStatusCompleted),
		"assignedTo": "u9",
		"project":    "hijack",
		"taskId":     "hijack",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusCompleted, updated.Status)
	assert.Equal(t, "u9", updated.AssignedTo)
	assert.Equal(t, "p1", updated.ProjectID)
	assert.Equal(t, created.TaskID, updated.TaskID)
}

func TestTaskStoreUpdateEmptyPatchReadsThrough(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(newFakeStore())

	created, err := store.Create(ctx, ports.CreateTaskInput{
		Title:     "original",
		Status:    entities.TaskStatusPending,
		ProjectID: "p1",
	})
	require.NoError(t, err)

	same, err := store.Update(ctx, "p1", created.TaskID, map[string]any{"project": "hijack"})
	require.NoError(t, err)
	require.NotNil(t, same)
	assert.Equal(t, created.UpdatedAt, same.UpdatedAt)
}

func TestTaskStoreUpdateMissing(t *testing.T) {
	store := newTestTaskStore(newFakeStore())

	_, err := store.Update(context.Background(), "p1", "ghost", map[string]any{"title": "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTaskStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(newFakeStore())

	created, err := store.Create(ctx, ports.CreateTaskInput{
		Title:     "short-lived",
		Status:    entities.TaskStatusPending,
		ProjectID: "p1",
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "p1", created.TaskID))

	tasks, err := store.GetByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

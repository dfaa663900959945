package dynamodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/domain/entities"
)

func TestDecodeProjectPartition(t *testing.T) {
	meta, err := encodeProjectMetadata(&entities.Project{
		ProjectID: "p1",
		Name:      "apollo",
		CreatedBy: "u1",
		CreatedAt: nowISO(),
		UpdatedAt: nowISO(),
	})
	require.NoError(t, err)
	task, err := encodeTask(&entities.Task{
		TaskID:    "t1",
		Title:     "first task",
		Status:    entities.TaskStatusPending,
		ProjectID: "p1",
		CreatedAt: nowISO(),
		UpdatedAt: nowISO(),
	})
	require.NoError(t, err)

	items := []Item{
		task,
		membershipItem("p1", "u2"),
		meta,
		membershipItem("p1", "u1"),
	}

	project, tasks, err := decodeProjectPartition(items)
	require.NoError(t, err)
	require.NotNil(t, project)
	assert.Equal(t, "p1", project.ProjectID)
	assert.Equal(t, []string{"u1", "u2"}, project.Members)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].TaskID)
}

func TestDecodeProjectPartitionWithoutMetadata(t *testing.T) {
	task, err := encodeTask(&entities.Task{
		TaskID:    "t1",
		Title:     "stray",
		Status:    entities.TaskStatusPending,
		ProjectID: "p1",
	})
	require.NoError(t, err)

	project, tasks, err := decodeProjectPartition([]Item{
		membershipItem("p1", "u1"),
		task,
	})
	require.NoError(t, err)
	assert.Nil(t, project)
	assert.Len(t, tasks, 1)
}

func TestDecodeProjectPartitionIgnoresUnknownRecords(t *testing.T) {
	meta, err := encodeProjectMetadata(&entities.Project{ProjectID: "p1", Name: "apollo", CreatedBy: "u1"})
	require.NoError(t, err)

	stray := copyItem(meta)
	stray[attrSK] = meta[attrPK] // SK now carries an unrecognized value

	project, tasks, err := decodeProjectPartition([]Item{meta, stray})
	require.NoError(t, err)
	require.NotNil(t, project)
	assert.Empty(t, tasks)
}

func TestKindOfSortKey(t *testing.T) {
	assert.Equal(t, recordMetadata, kindOfSortKey("METADATA"))
	assert.Equal(t, recordMember, kindOfSortKey("USER#u1"))
	assert.Equal(t, recordTask, kindOfSortKey("TASK#t1"))
	assert.Equal(t, recordUnknown, kindOfSortKey("PROJ#p1"))
}

// Timestamps must stay lexicographically sortable: the notification sort
// key depends on it. Fixed width is what guarantees it.
func TestIsoTimestampsSortLexicographically(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 8, 31, 9, 0, 0, 1, time.UTC),
		time.Date(2026, 8, 31, 9, 0, 0, 999999999, time.UTC),
		time.Date(2026, 8, 31, 9, 0, 1, 0, time.UTC),
		time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	var prev string
	for _, ts := range times {
		formatted := ts.Format(isoTimeFormat)
		assert.Len(t, formatted, len(isoTimeFormat))
		assert.Greater(t, formatted, prev)
		prev = formatted
	}
}

func TestUserCodecRoundTrip(t *testing.T) {
	original := &entities.User{
		UserID:               "u1",
		Email:                "ada@example.com",
		Username:             "ada",
		PasswordHash:         "$2a$10$hash",
		Role:                 entities.RoleAdmin,
		NotificationSettings: entities.DefaultNotificationSettings(),
		CreatedAt:            nowISO(),
		UpdatedAt:            nowISO(),
	}

	item, err := encodeUser(original)
	require.NoError(t, err)
	decoded, err := decodeUser(item)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

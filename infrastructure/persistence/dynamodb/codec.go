package dynamodb

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"taskboard/domain/entities"
)

// Key-schema constants. These are an external contract shared with the
// provisioned tables and indexes; do not change them without a migration.
const (
	attrPK = "PK"
	attrSK = "SK"

	projectKeyPrefix = "PROJ#"
	memberKeyPrefix  = "USER#"
	taskKeyPrefix    = "TASK#"
	metadataSortKey  = "METADATA"
)

// isoTimeFormat is a fixed-width ISO-8601 layout. Fixed width keeps the
// strings lexicographically sortable, which the notification sort key
// depends on; nanosecond precision keeps the per-user collision window on
// that key small.
const isoTimeFormat = "2006-01-02T15:04:05.000000000Z"

func nowISO() string {
	return time.Now().UTC().Format(isoTimeFormat)
}

func projectPK(projectID string) string { return projectKeyPrefix + projectID }
func memberSK(userID string) string     { return memberKeyPrefix + userID }
func taskSK(taskID string) string       { return taskKeyPrefix + taskID }

// recordKind discriminates the three record shapes sharing a project
// partition.
type recordKind int

const (
	recordUnknown recordKind = iota
	recordMetadata
	recordMember
	recordTask
)

func kindOfSortKey(sk string) recordKind {
	switch {
	case sk == metadataSortKey:
		return recordMetadata
	case strings.HasPrefix(sk, memberKeyPrefix):
		return recordMember
	case strings.HasPrefix(sk, taskKeyPrefix):
		return recordTask
	default:
		return recordUnknown
	}
}

func sortKeyOf(item Item) string {
	if v, ok := item[attrSK].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func partitionKeyOf(item Item) string {
	if v, ok := item[attrPK].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// --- Users ---

type userItem struct {
	UserID       string `dynamodbav:"userId"`
	Email        string `dynamodbav:"email"`
	Username     string `dynamodbav:"username"`
	PasswordHash string `dynamodbav:"passwordHash"`

	FirstName string `dynamodbav:"firstName,omitempty"`
	LastName  string `dynamodbav:"lastName,omitempty"`
	Role      string `dynamodbav:"role"`

	Position   string `dynamodbav:"position,omitempty"`
	Department string `dynamodbav:"department,omitempty"`
	Bio        string `dynamodbav:"bio,omitempty"`
	Phone      string `dynamodbav:"phone,omitempty"`
	Avatar     string `dynamodbav:"avatar,omitempty"`

	NotificationSettings *entities.NotificationSettings `dynamodbav:"notificationSettings,omitempty"`

	CreatedAt string `dynamodbav:"createdAt"`
	UpdatedAt string `dynamodbav:"updatedAt"`
}

func encodeUser(u *entities.User) (Item, error) {
	item, err := attributevalue.MarshalMap(userItem{
		UserID:               u.UserID,
		Email:                u.Email,
		Username:             u.Username,
		PasswordHash:         u.PasswordHash,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Role:                 string(u.Role),
		Position:             u.Position,
		Department:           u.Department,
		Bio:                  u.Bio,
		Phone:                u.Phone,
		Avatar:               u.Avatar,
		NotificationSettings: u.NotificationSettings,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	return item, nil
}

func decodeUser(item Item) (*entities.User, error) {
	var rec userItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &entities.User{
		UserID:               rec.UserID,
		Email:                rec.Email,
		Username:             rec.Username,
		PasswordHash:         rec.PasswordHash,
		FirstName:            rec.FirstName,
		LastName:             rec.LastName,
		Role:                 entities.Role(rec.Role),
		Position:             rec.Position,
		Department:           rec.Department,
		Bio:                  rec.Bio,
		Phone:                rec.Phone,
		Avatar:               rec.Avatar,
		NotificationSettings: rec.NotificationSettings,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}, nil
}

func decodeUsers(items []Item) ([]entities.User, error) {
	users := make([]entities.User, 0, len(items))
	for _, item := range items {
		u, err := decodeUser(item)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func userKey(userID string) Key {
	return Key{"userId": &types.AttributeValueMemberS{Value: userID}}
}

// --- Projects ---

// projectMetaItem is the single METADATA record of a project partition.
type projectMetaItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`

	Name        string `dynamodbav:"name"`
	Description string `dynamodbav:"description,omitempty"`
	CreatedBy   string `dynamodbav:"createdBy"`

	Status   string `dynamodbav:"status,omitempty"`
	Priority string `dynamodbav:"priority,omitempty"`
	DueDate  string `dynamodbav:"dueDate,omitempty"`

	CreatedAt string `dynamodbav:"createdAt"`
	UpdatedAt string `dynamodbav:"updatedAt"`
}

func encodeProjectMetadata(p *entities.Project) (Item, error) {
	item, err := attributevalue.MarshalMap(projectMetaItem{
		PK:          projectPK(p.ProjectID),
		SK:          metadataSortKey,
		Name:        p.Name,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
		Status:      p.Status,
		Priority:    p.Priority,
		DueDate:     p.DueDate,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project metadata: %w", err)
	}
	return item, nil
}

// decodeProjectMetadata decodes a metadata record alone. Members stays
// empty: metadata-only paths do not hydrate membership.
func decodeProjectMetadata(item Item) (*entities.Project, error) {
	var rec projectMetaItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project metadata: %w", err)
	}
	return &entities.Project{
		ProjectID:   strings.TrimPrefix(rec.PK, projectKeyPrefix),
		Name:        rec.Name,
		Description: rec.Description,
		CreatedBy:   rec.CreatedBy,
		Members:     []string{},
		Status:      rec.Status,
		Priority:    rec.Priority,
		DueDate:     rec.DueDate,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

// membershipItem links one member into a project partition. It carries no
// payload: both ids live in the key, and the reverse index projects keys
// only.
func membershipItem(projectID, memberID string) Item {
	return Item{
		attrPK: &types.AttributeValueMemberS{Value: projectPK(projectID)},
		attrSK: &types.AttributeValueMemberS{Value: memberSK(memberID)},
	}
}

func membershipKey(projectID, memberID string) Key {
	return Key{
		attrPK: &types.AttributeValueMemberS{Value: projectPK(projectID)},
		attrSK: &types.AttributeValueMemberS{Value: memberSK(memberID)},
	}
}

func projectMetadataKey(projectID string) Key {
	return Key{
		attrPK: &types.AttributeValueMemberS{Value: projectPK(projectID)},
		attrSK: &types.AttributeValueMemberS{Value: metadataSortKey},
	}
}

// decodeProjectPartition reconstructs a project from every record of its
// partition, dispatching on the sort-key discriminant. Records with an
// unrecognized sort key are ignored. A partition without a metadata record
// decodes to a nil project: stray membership rows alone do not make a
// project.
func decodeProjectPartition(items []Item) (*entities.Project, []entities.Task, error) {
	var (
		project *entities.Project
		members []string
		tasks   []entities.Task
	)

	for _, item := range items {
		switch kindOfSortKey(sortKeyOf(item)) {
		case recordMetadata:
			p, err := decodeProjectMetadata(item)
			if err != nil {
				return nil, nil, err
			}
			project = p
		case recordMember:
			members = append(members, strings.TrimPrefix(sortKeyOf(item), memberKeyPrefix))
		case recordTask:
			t, err := decodeTask(item)
			if err != nil {
				return nil, nil, err
			}
			tasks = append(tasks, *t)
		}
	}

	if project == nil {
		return nil, tasks, nil
	}
	sort.Strings(members)
	project.Members = members
	return project, tasks, nil
}

// --- Tasks ---

type taskItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`

	TaskID      string `dynamodbav:"taskId"`
	Title       string `dynamodbav:"title"`
	Description string `dynamodbav:"description,omitempty"`
	Status      string `dynamodbav:"status"`

	Project    string `dynamodbav:"project"`
	AssignedTo string `dynamodbav:"assignedTo,omitempty"`

	DueDate   string `dynamodbav:"dueDate,omitempty"`
	CreatedAt string `dynamodbav:"createdAt"`
	UpdatedAt string `dynamodbav:"updatedAt"`
}

func encodeTask(t *entities.Task) (Item, error) {
	item, err := attributevalue.MarshalMap(taskItem{
		PK:          projectPK(t.ProjectID),
		SK:          taskSK(t.TaskID),
		TaskID:      t.TaskID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Project:     t.ProjectID,
		AssignedTo:  t.AssignedTo,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return item, nil
}

func decodeTask(item Item) (*entities.Task, error) {
	var rec taskItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &entities.Task{
		TaskID:      rec.TaskID,
		Title:       rec.Title,
		Description: rec.Description,
		Status:      entities.TaskStatus(rec.Status),
		ProjectID:   rec.Project,
		AssignedTo:  rec.AssignedTo,
		DueDate:     rec.DueDate,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

func decodeTasks(items []Item) ([]entities.Task, error) {
	tasks := make([]entities.Task, 0, len(items))
	for _, item := range items {
		t, err := decodeTask(item)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func taskKey(projectID, taskID string) Key {
	return Key{
		attrPK: &types.AttributeValueMemberS{Value: projectPK(projectID)},
		attrSK: &types.AttributeValueMemberS{Value: taskSK(taskID)},
	}
}

// --- Notifications ---

type notificationItem struct {
	UserID    string `dynamodbav:"userId"`
	CreatedAt string `dynamodbav:"createdAt"`

	NotificationID string `dynamodbav:"notificationId"`
	Message        string `dynamodbav:"message"`
	Type           string `dynamodbav:"type"`
	Read           bool   `dynamodbav:"read"`

	UpdatedAt string `dynamodbav:"updatedAt"`
}

func encodeNotification(n *entities.Notification) (Item, error) {
	item, err := attributevalue.MarshalMap(notificationItem{
		UserID:         n.UserID,
		CreatedAt:      n.CreatedAt,
		NotificationID: n.NotificationID,
		Message:        n.Message,
		Type:           string(n.Type),
		Read:           n.Read,
		UpdatedAt:      n.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return item, nil
}

func decodeNotification(item Item) (*entities.Notification, error) {
	var rec notificationItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &entities.Notification{
		NotificationID: rec.NotificationID,
		UserID:         rec.UserID,
		Message:        rec.Message,
		Type:           entities.NotificationType(rec.Type),
		Read:           rec.Read,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

func decodeNotifications(items []Item) ([]entities.Notification, error) {
	notifications := make([]entities.Notification, 0, len(items))
	for _, item := range items {
		n, err := decodeNotification(item)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, nil
}

func notificationKey(userID, createdAt string) Key {
	return Key{
		"userId":    &types.AttributeValueMemberS{Value: userID},
		"createdAt": &types.AttributeValueMemberS{Value: createdAt},
	}
}

// Package ports defines the interfaces through which the transport layer
// consumes the data-access layer, plus the inputs those operations accept.
// Implementations live under infrastructure/persistence; tests substitute
// doubles.
package ports

import (
	"context"

	"taskboard/domain/entities"
)

// CreateUserInput carries the validated registration payload. The password
// is already hashed by the caller.
type CreateUserInput struct {
	Email        string `validate:"required,email"`
	Username     string `validate:"required,min=1"`
	PasswordHash string `validate:"required"`

	FirstName string
	LastName  string
	Role      entities.Role

	Position   string
	Department string
	Bio        string
	Phone      string
	Avatar     string

	NotificationSettings *entities.NotificationSettings
}

// CreateProjectInput carries a validated project-creation payload.
// The creator is always linked as a member, whether or not it appears in
// Members.
type CreateProjectInput struct {
	Name        string `validate:"required,min=1"`
	Description string
	CreatedBy   string   `validate:"required"`
	Members     []string `validate:"dive,required"`

	Status   string
	Priority string
	DueDate  string
}

// CreateTaskInput carries a validated task-creation payload.
type CreateTaskInput struct {
	Title       string `validate:"required,min=1"`
	Description string
	Status      entities.TaskStatus `validate:"required,oneof=pending in_progress completed"`
	ProjectID   string              `validate:"required"`
	AssignedTo  string
	DueDate     string
}

// CreateNotificationInput carries a validated notification payload.
type CreateNotificationInput struct {
	UserID  string                    `validate:"required"`
	Message string                    `validate:"required,min=1"`
	Type    entities.NotificationType `validate:"required"`
}

// UserStore is the access layer for the flat Users table and its two
// uniqueness indexes.
//
// Single-entity lookups return (nil, nil) when nothing matches: absence is
// a valid result, not an error.
type UserStore interface {
	// Create mints an id and timestamps and persists the user after an
	// advisory uniqueness check on email and username. The check and the
	// write are not atomic; concurrent registrations can both pass it.
	Create(ctx context.Context, in CreateUserInput) (*entities.User, error)

	GetByID(ctx context.Context, userID string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)

	// GetByIDs resolves many users in one de-duplicated batch read.
	GetByIDs(ctx context.Context, userIDs []string) ([]entities.User, error)

	// Update applies a partial patch. userId, email, username, createdAt
	// and updatedAt are ignored even if present; a patch with nothing else
	// in it is a read-through.
	Update(ctx context.Context, userID string, patch map[string]any) (*entities.User, error)

	// Delete removes the account and best-effort deletes any stored avatar
	// object through the object-storage collaborator.
	Delete(ctx context.Context, userID string) error

	// ScanAll reads every user. Development only: a full-table scan with
	// no latency bound.
	ScanAll(ctx context.Context) ([]entities.User, error)
}

// ProjectStore is the access layer for the merged project partition.
type ProjectStore interface {
	// Create writes the metadata record and one membership record per
	// entry in the union of creator and members as one all-or-nothing
	// transaction.
	Create(ctx context.Context, in CreateProjectInput) (*entities.Project, error)

	// GetDetails reconstructs the project from its whole partition. A
	// partition with stray membership rows but no metadata record reads as
	// not found (nil, nil).
	GetDetails(ctx context.Context, projectID string) (*entities.Project, error)

	// Update patches the metadata record only; name, description, status,
	// priority and dueDate are mutable. The returned project carries no
	// membership (metadata-only path).
	Update(ctx context.Context, projectID string, patch map[string]any) (*entities.Project, error)

	// AddMember and RemoveMember are independent single-item writes, not
	// transactional with anything else. Racing them against an uncommitted
	// Create of the same project is undefined.
	AddMember(ctx context.Context, projectID, memberID string) error
	RemoveMember(ctx context.Context, projectID, memberID string) error

	// Delete enumerates the partition and deletes it in transaction-sized
	// batches, reporting success only once the partition is empty.
	Delete(ctx context.Context, projectID string) error

	// GetByUserID returns project references for every project the user is
	// a member of, via the reverse membership index.
	GetByUserID(ctx context.Context, userID string) ([]entities.ProjectRef, error)

	// GetByIDs batch-reads metadata records only; membership is not
	// hydrated on this path.
	GetByIDs(ctx context.Context, projectIDs []string) ([]entities.Project, error)
}

// TaskStore is the access layer for tasks inside project partitions.
type TaskStore interface {
	Create(ctx context.Context, in CreateTaskInput) (*entities.Task, error)

	GetByProject(ctx context.Context, projectID string) ([]entities.Task, error)
	GetByAssignee(ctx context.Context, userID string) ([]entities.Task, error)

	// GetByID resolves a task by id alone through the task-id index.
	GetByID(ctx context.Context, taskID string) (*entities.Task, error)

	// FindByIDScan resolves a task by id with a full-table scan. Retained
	// as a development fallback only; never use it on a hot path.
	FindByIDScan(ctx context.Context, taskID string) (*entities.Task, error)

	// Update patches title, description, status, assignedTo and dueDate;
	// anything else is ignored and an effectively empty patch is a
	// read-through.
	Update(ctx context.Context, projectID, taskID string, patch map[string]any) (*entities.Task, error)
	Delete(ctx context.Context, projectID, taskID string) error
}

// NotificationStore is the access layer for per-user notification
// partitions.
type NotificationStore interface {
	Create(ctx context.Context, in CreateNotificationInput) (*entities.Notification, error)

	// GetByUser returns the user's notifications, most recent first.
	GetByUser(ctx context.Context, userID string) ([]entities.Notification, error)

	// FindByID resolves a notification by id with a full-table scan.
	// Development fallback only.
	FindByID(ctx context.Context, notificationID string) (*entities.Notification, error)

	// MarkRead conditionally flips one notification to read; a missing
	// notification is a NOT_FOUND error rather than an upsert.
	MarkRead(ctx context.Context, userID, createdAt string) (*entities.Notification, error)

	// MarkAllRead rewrites every unread notification as read, chunked into
	// transaction-sized batches when the unread count exceeds the bound.
	MarkAllRead(ctx context.Context, userID string) error

	Delete(ctx context.Context, userID, createdAt string) error
}

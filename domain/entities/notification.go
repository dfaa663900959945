package entities

// NotificationType tags the domain event a notification was created for.
type NotificationType string

const (
	NotificationLoginSuccess      NotificationType = "login_success"
	NotificationLogoutSuccess     NotificationType = "logout_success"
	NotificationProfileUpdated    NotificationType = "profile_updated"
	NotificationAvatarUploaded    NotificationType = "avatar_uploaded"
	NotificationAvatarDeleted     NotificationType = "avatar_deleted"
	NotificationPasswordUpdated   NotificationType = "password_updated"
	NotificationProjectCreated    NotificationType = "project_created"
	NotificationProjectUpdated    NotificationType = "project_updated"
	NotificationProjectInvitation NotificationType = "project_invitation"
	NotificationTaskCreated       NotificationType = "task_created"
	NotificationTaskAssigned      NotificationType = "task_assigned"
	NotificationTaskUpdated       NotificationType = "task_updated"
	NotificationTaskCompleted     NotificationType = "task_completed"
)

// Notification is keyed by (userId, createdAt): the partition is the owning
// user and the sort key is the creation timestamp, so a per-user query is
// already in chronological order. Two notifications created for one user at
// the same timestamp would collide on the sort key; the timestamp carries
// nanosecond precision to keep that window small.
type Notification struct {
	NotificationID string           `json:"notificationId"`
	UserID         string           `json:"userId"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	Read           bool             `json:"read"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

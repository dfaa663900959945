package entities

// Role is the coarse authorization role attached to a user account.
// Role checks themselves happen in the transport layer; the store only
// persists the value.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// NotificationSettings is the per-user notification preference sub-record.
type NotificationSettings struct {
	EmailNotifications bool `dynamodbav:"emailNotifications" json:"emailNotifications"`
	PushNotifications  bool `dynamodbav:"pushNotifications" json:"pushNotifications"`
	WeeklyDigest       bool `dynamodbav:"weeklyDigest" json:"weeklyDigest"`
}

// DefaultNotificationSettings returns the settings applied when registration
// does not supply any.
func DefaultNotificationSettings() *NotificationSettings {
	return &NotificationSettings{
		EmailNotifications: true,
		PushNotifications:  true,
		WeeklyDigest:       false,
	}
}

// User is a registered account. UserID, Email, Username and CreatedAt are
// immutable after creation; Email and Username are additionally unique
// across all users, enforced only by a best-effort pre-write check.
//
// Timestamps are ISO-8601 strings throughout, matching the stored
// representation so that they sort lexicographically.
type User struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`

	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role"`

	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
	Bio        string `json:"bio,omitempty"`
	Phone      string `json:"phone,omitempty"`

	// Avatar is an opaque URL minted by the object-storage collaborator.
	// The store persists it verbatim and only ever parses it to derive a
	// storage key on account deletion.
	Avatar string `json:"avatar,omitempty"`

	NotificationSettings *NotificationSettings `json:"notificationSettings,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

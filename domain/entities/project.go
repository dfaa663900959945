package entities

// Project is a collaboration space owning members and tasks. Physically it
// is one DynamoDB partition: a single METADATA record, one USER#<id> record
// per member and zero or more TASK#<id> records.
//
// The creator is always a member. Members carries the decoded membership
// records; paths that only read metadata (batch lookups, metadata updates)
// leave it empty.
type Project struct {
	ProjectID   string   `json:"projectId"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CreatedBy   string   `json:"createdBy"`
	Members     []string `json:"members"`

	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	DueDate  string `json:"dueDate,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ProjectRef is a bare project reference, as returned by the member
// secondary index. Full details require a second batched fetch.
type ProjectRef struct {
	ProjectID string `json:"projectId"`
}

package entities

// TaskStatus enumerates task states. There is no enforced transition graph:
// any status may follow any other, free-form kanban style.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Task always lives inside its owning project's partition; its full storage
// key is (PROJ#<projectId>, TASK#<taskId>). AssignedTo, when set, is not
// required to be a member of the project.
type Task struct {
	TaskID      string     `json:"taskId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`

	ProjectID  string `json:"project"`
	AssignedTo string `json:"assignedTo,omitempty"`

	DueDate   string `json:"dueDate,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

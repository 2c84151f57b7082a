package models

import "time"

// QuestionStatus is the lifecycle state of an analysis task
type QuestionStatus string

const (
	QuestionStatusTodo      QuestionStatus = "todo"
	QuestionStatusProgress  QuestionStatus = "progress"
	QuestionStatusDoing     QuestionStatus = "doing"
	QuestionStatusDone      QuestionStatus = "done"
	QuestionStatusCancelled QuestionStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses
func (s QuestionStatus) IsValid() bool {
	switch s {
	case QuestionStatusTodo, QuestionStatusProgress, QuestionStatusDoing,
		QuestionStatusDone, QuestionStatusCancelled:
		return true
	}
	return false
}

// Question is one unit of human-escalated analysis work
type Question struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"` // Markdown
	Status        QuestionStatus `json:"status"`
	ReferenceURLs []string       `json:"reference_urls,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// User represents a human analyst
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Assignment links a question to the analyst responsible for it
type Assignment struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	UserID     int64     `json:"user_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// TaskContext carries the evidence attached to an escalation request
type TaskContext struct {
	Query             string         `json:"query"`
	Data              map[string]any `json:"data,omitempty"`
	Uncertainty       string         `json:"uncertainty"`
	SuggestedApproach string         `json:"suggested_approach,omitempty"`
}

// CreateTaskRequest is the input to the create_analysis_task tool
type CreateTaskRequest struct {
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	Context       TaskContext `json:"context"`
	ReferenceURLs []string    `json:"reference_urls,omitempty"`
	AssignTo      []string    `json:"assign_to,omitempty"`
}

// CreateTaskResult is the structured outcome of a task-authoring call.
// Failures are reported through Error/Details rather than propagated, so
// the calling agent always gets a JSON-serializable result to inspect.
type CreateTaskResult struct {
	TaskID  int64  `json:"task_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	ViewURL string `json:"view_url,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Failed reports whether the result carries an error
func (r *CreateTaskResult) Failed() bool {
	return r.Error != ""
}

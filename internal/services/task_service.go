package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"insightdesk/internal/logging"
	"insightdesk/internal/models"
)

// TaskService converts unstructured escalation requests into persisted
// questions, optionally pre-assigning them to an analyst.
type TaskService struct {
	store *QuestionStore
}

// NewTaskService creates a new task service
func NewTaskService(store *QuestionStore) *TaskService {
	return &TaskService{store: store}
}

// CreateAnalysisTask renders the escalation context into a markdown body,
// persists it as a todo question and assigns the first user matching the
// first email in AssignTo. Trailing emails are accepted but ignored; an
// email matching nobody is not an error.
//
// Failures never propagate: the result carries an error tag and details
// instead, so the calling agent can decide how to react.
func (s *TaskService) CreateAnalysisTask(ctx context.Context, req models.CreateTaskRequest) *models.CreateTaskResult {
	if strings.TrimSpace(req.Title) == "" {
		return &models.CreateTaskResult{
			Error:   "Failed to create analysis task",
			Details: "title must not be empty",
		}
	}

	content := formatTaskContent(req.Content, req.Context)

	assignEmail := ""
	if len(req.AssignTo) > 0 {
		// Only the first address is honored for now
		assignEmail = req.AssignTo[0]
	}

	question, assignee, err := s.store.CreateTask(ctx, req.Title, content, req.ReferenceURLs, assignEmail)
	if err != nil {
		log.Printf("⚠️  [TASKS] Failed to create analysis task: %v", err)
		GetMetrics().TaskFailures.Inc()
		return &models.CreateTaskResult{
			Error:   "Failed to create analysis task",
			Details: err.Error(),
		}
	}

	message := fmt.Sprintf("Created analysis task %q with ID %d", req.Title, question.ID)
	if len(req.AssignTo) > 0 {
		message += " and assigned to " + strings.Join(req.AssignTo, ", ")
	}

	GetMetrics().TaskCreations.Inc()
	log.Printf("📝 [TASKS] %s", message)
	taskLog := logging.WithTask(slog.Default(), question.ID, req.Title)
	if assignee != nil {
		taskLog.Info("task assigned", "assignee", assignee.Email)
	} else {
		taskLog.Info("task created unassigned")
	}

	return &models.CreateTaskResult{
		TaskID:  question.ID,
		Status:  "created",
		Message: message,
		ViewURL: fmt.Sprintf("/tasks/%d", question.ID),
	}
}

// formatTaskContent assembles the question body in a fixed section order.
// The suggested approach section is omitted entirely when absent; missing
// context data renders as an empty JSON object.
func formatTaskContent(description string, taskCtx models.TaskContext) string {
	var b strings.Builder

	b.WriteString("## Analysis Request\n")
	b.WriteString(description)
	b.WriteString("\n\n## Original Query\n")
	b.WriteString(taskCtx.Query)
	b.WriteString("\n\n## Uncertainty Context\n")
	b.WriteString(taskCtx.Uncertainty)

	if taskCtx.SuggestedApproach != "" {
		b.WriteString("\n\n## Suggested Approach\n")
		b.WriteString(taskCtx.SuggestedApproach)
	}

	data := taskCtx.Data
	if data == nil {
		data = map[string]any{}
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		encoded = []byte("{}")
	}

	b.WriteString("\n\n## Relevant Data\n```json\n")
	b.Write(encoded)
	b.WriteString("\n```\n")

	return b.String()
}

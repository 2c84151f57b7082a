package services

import (
	"context"
	"strings"
	"testing"

	"insightdesk/internal/models"
)

func newTestTaskService(t *testing.T) (*TaskService, *QuestionStore) {
	t.Helper()
	store := newTestStore(t)
	return NewTaskService(store), store
}

func TestCreateAnalysisTask_NoAssignee(t *testing.T) {
	svc, store := newTestTaskService(t)
	ctx := context.Background()

	result := svc.CreateAnalysisTask(ctx, models.CreateTaskRequest{
		Title:   "Investigate churn spike",
		Content: "Churn jumped 2x in March",
		Context: models.TaskContext{
			Query:       "why did churn spike in march",
			Uncertainty: "not enough data to isolate the cause",
		},
	})

	if result.Failed() {
		t.Fatalf("Expected success, got error: %s (%s)", result.Error, result.Details)
	}
	if result.Status != "created" {
		t.Errorf("Expected status 'created', got %s", result.Status)
	}

	assignments, err := store.AssignmentsForQuestion(ctx, result.TaskID)
	if err != nil {
		t.Fatalf("Failed to list assignments: %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("Expected no assignments without assign_to, got %d", len(assignments))
	}
}

func TestCreateAnalysisTask_AssignsFirstMatchOnly(t *testing.T) {
	svc, store := newTestTaskService(t)
	ctx := context.Background()

	ada, err := store.InsertUser(ctx, "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	if _, err := store.InsertUser(ctx, "Grace", "grace@example.com"); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	// Only the first email is honored; grace@ is accepted but ignored
	result := svc.CreateAnalysisTask(ctx, models.CreateTaskRequest{
		Title:   "Margin analysis",
		Content: "Check Q2 margins",
		Context: models.TaskContext{
			Query:       "q2 margins",
			Uncertainty: "conflicting data sources",
		},
		AssignTo: []string{"ada@example.com", "grace@example.com"},
	})

	if result.Failed() {
		t.Fatalf("Expected success, got error: %s (%s)", result.Error, result.Details)
	}

	assignments, err := store.AssignmentsForQuestion(ctx, result.TaskID)
	if err != nil {
		t.Fatalf("Failed to list assignments: %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("Expected exactly one assignment, got %d", len(assignments))
	}
	if assignments[0].UserID != ada.ID {
		t.Errorf("Expected assignment to first matched user %d, got %d", ada.ID, assignments[0].UserID)
	}

	// The message still reports every requested address
	if !strings.Contains(result.Message, "ada@example.com, grace@example.com") {
		t.Errorf("Expected message to list all requested assignees, got: %s", result.Message)
	}
}

func TestCreateAnalysisTask_UnknownAssigneeSucceeds(t *testing.T) {
	svc, store := newTestTaskService(t)
	ctx := context.Background()

	result := svc.CreateAnalysisTask(ctx, models.CreateTaskRequest{
		Title:   "Orphan check",
		Content: "content",
		Context: models.TaskContext{
			Query:       "q",
			Uncertainty: "u",
		},
		AssignTo: []string{"nobody@example.com"},
	})

	if result.Failed() {
		t.Fatalf("Expected success for zero-match assignee, got: %s", result.Details)
	}

	question, err := store.GetQuestion(ctx, result.TaskID)
	if err != nil {
		t.Fatalf("Question was not created: %v", err)
	}
	if question.Status != models.QuestionStatusTodo {
		t.Errorf("Expected status todo, got %s", question.Status)
	}

	assignments, _ := store.AssignmentsForQuestion(ctx, result.TaskID)
	if len(assignments) != 0 {
		t.Errorf("Expected no assignments, got %d", len(assignments))
	}
}

func TestCreateAnalysisTask_EmptyTitle(t *testing.T) {
	svc, _ := newTestTaskService(t)

	result := svc.CreateAnalysisTask(context.Background(), models.CreateTaskRequest{
		Title:   "   ",
		Content: "content",
		Context: models.TaskContext{Query: "q", Uncertainty: "u"},
	})

	if !result.Failed() {
		t.Fatal("Expected a structured failure for an empty title")
	}
	if result.TaskID != 0 {
		t.Errorf("Expected no task ID on failure, got %d", result.TaskID)
	}
}

func TestCreateAnalysisTask_ViewURL(t *testing.T) {
	svc, _ := newTestTaskService(t)

	result := svc.CreateAnalysisTask(context.Background(), models.CreateTaskRequest{
		Title:   "View path",
		Content: "content",
		Context: models.TaskContext{Query: "q", Uncertainty: "u"},
	})

	if result.Failed() {
		t.Fatalf("Expected success, got: %s", result.Details)
	}
	if !strings.HasPrefix(result.ViewURL, "/tasks/") {
		t.Errorf("Expected view URL under /tasks/, got %s", result.ViewURL)
	}
}

func TestFormatTaskContent_SectionOrder(t *testing.T) {
	content := formatTaskContent("Check the numbers", models.TaskContext{
		Query:             "original query",
		Uncertainty:       "too noisy",
		SuggestedApproach: "segment by region",
		Data:              map[string]any{"rows": 42},
	})

	sections := []string{
		"## Analysis Request",
		"Check the numbers",
		"## Original Query",
		"original query",
		"## Uncertainty Context",
		"too noisy",
		"## Suggested Approach",
		"segment by region",
		"## Relevant Data",
		"```json",
	}

	pos := -1
	for _, section := range sections {
		idx := strings.Index(content, section)
		if idx < 0 {
			t.Fatalf("Missing section %q in rendered content:\n%s", section, content)
		}
		if idx < pos {
			t.Errorf("Section %q out of order", section)
		}
		pos = idx
	}

	if !strings.Contains(content, `"rows": 42`) {
		t.Errorf("Expected data payload in rendered content:\n%s", content)
	}
}

func TestFormatTaskContent_OmitsSuggestedApproach(t *testing.T) {
	content := formatTaskContent("desc", models.TaskContext{
		Query:       "q",
		Uncertainty: "u",
	})

	if strings.Contains(content, "## Suggested Approach") {
		t.Error("Suggested approach section must be omitted when not supplied")
	}
	if !strings.Contains(content, "{}") {
		t.Errorf("Missing context data should render as an empty object:\n%s", content)
	}
}

func TestCreateAnalysisTask_ReferenceURLsRoundTrip(t *testing.T) {
	svc, store := newTestTaskService(t)
	ctx := context.Background()

	urls := []string{"http://a", "http://b"}
	result := svc.CreateAnalysisTask(ctx, models.CreateTaskRequest{
		Title:         "URLs",
		Content:       "content",
		Context:       models.TaskContext{Query: "q", Uncertainty: "u"},
		ReferenceURLs: urls,
	})
	if result.Failed() {
		t.Fatalf("Expected success, got: %s", result.Details)
	}

	question, err := store.GetQuestion(ctx, result.TaskID)
	if err != nil {
		t.Fatalf("Failed to fetch question: %v", err)
	}
	if len(question.ReferenceURLs) != 2 ||
		question.ReferenceURLs[0] != "http://a" ||
		question.ReferenceURLs[1] != "http://b" {
		t.Errorf("Reference URLs did not round-trip in order: %v", question.ReferenceURLs)
	}
}

package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"insightdesk/internal/database"
	"insightdesk/internal/models"
)

func newTestStore(t *testing.T) *QuestionStore {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "store_test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	return NewQuestionStore(db)
}

func TestQuestionStore_InsertQuestion_DefaultStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q, err := store.InsertQuestion(ctx, "Revenue dip", "Why did revenue dip?", "", nil)
	if err != nil {
		t.Fatalf("Failed to insert question: %v", err)
	}

	if q.Status != models.QuestionStatusTodo {
		t.Errorf("Expected default status todo, got %s", q.Status)
	}
	if q.ID == 0 {
		t.Error("Expected a non-zero question ID")
	}
}

func TestQuestionStore_InsertQuestion_InvalidStatus(t *testing.T) {
	store := newTestStore(t)

	_, err := store.InsertQuestion(context.Background(), "t", "c", "bogus", nil)
	if !errors.Is(err, database.ErrConstraintViolation) {
		t.Errorf("Expected constraint violation for invalid status, got: %v", err)
	}
}

func TestQuestionStore_ReferenceURLs_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	urls := []string{"http://a", "http://b"}
	q, err := store.InsertQuestion(ctx, "URLs", "content", models.QuestionStatusTodo, urls)
	if err != nil {
		t.Fatalf("Failed to insert question: %v", err)
	}

	got, err := store.GetQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("Failed to get question: %v", err)
	}

	if len(got.ReferenceURLs) != 2 {
		t.Fatalf("Expected 2 reference URLs, got %d", len(got.ReferenceURLs))
	}
	for i, url := range urls {
		if got.ReferenceURLs[i] != url {
			t.Errorf("Expected URL %q at position %d, got %q", url, i, got.ReferenceURLs[i])
		}
	}
}

func TestQuestionStore_FindUsersByEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.InsertUser(ctx, "Ada", "ada@example.com"); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	users, err := store.FindUsersByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("Failed to find users: %v", err)
	}
	if len(users) != 1 || users[0].Name != "Ada" {
		t.Errorf("Expected one user named Ada, got %+v", users)
	}

	none, err := store.FindUsersByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("Unexpected error for zero-match lookup: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected empty result for unknown email, got %d users", len(none))
	}
}

func TestQuestionStore_InsertUser_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.InsertUser(ctx, "Ada", "ada@example.com"); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	_, err := store.InsertUser(ctx, "Impostor", "ada@example.com")
	if !errors.Is(err, database.ErrConstraintViolation) {
		t.Errorf("Expected constraint violation for duplicate email, got: %v", err)
	}
}

func TestQuestionStore_InsertAssignment_DanglingReference(t *testing.T) {
	store := newTestStore(t)

	_, err := store.InsertAssignment(context.Background(), 999, 999)
	if !errors.Is(err, database.ErrConstraintViolation) {
		t.Errorf("Expected constraint violation for dangling references, got: %v", err)
	}
}

func TestQuestionStore_DeleteQuestion_CascadesAssignments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user, err := store.InsertUser(ctx, "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	q, err := store.InsertQuestion(ctx, "t", "c", "", nil)
	if err != nil {
		t.Fatalf("Failed to insert question: %v", err)
	}
	if _, err := store.InsertAssignment(ctx, q.ID, user.ID); err != nil {
		t.Fatalf("Failed to insert assignment: %v", err)
	}

	if err := store.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatalf("Failed to delete question: %v", err)
	}

	assignments, err := store.AssignmentsForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to list assignments: %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("Expected assignments to cascade on question delete, got %d", len(assignments))
	}
}

func TestQuestionStore_DeleteUser_CascadesAssignments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user, err := store.InsertUser(ctx, "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	q, err := store.InsertQuestion(ctx, "t", "c", "", nil)
	if err != nil {
		t.Fatalf("Failed to insert question: %v", err)
	}
	if _, err := store.InsertAssignment(ctx, q.ID, user.ID); err != nil {
		t.Fatalf("Failed to insert assignment: %v", err)
	}

	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	assignments, err := store.AssignmentsForQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("Failed to list assignments: %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("Expected assignments to cascade on user delete, got %d", len(assignments))
	}

	// Question itself survives the user delete
	if _, err := store.GetQuestion(ctx, q.ID); err != nil {
		t.Errorf("Question should survive user deletion: %v", err)
	}
}

func TestQuestionStore_CreateTask_Transactional(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user, err := store.InsertUser(ctx, "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	q, assignee, err := store.CreateTask(ctx, "Churn", "content", nil, "ada@example.com")
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if assignee == nil || assignee.ID != user.ID {
		t.Fatalf("Expected task assigned to Ada, got %+v", assignee)
	}

	assignments, err := store.AssignmentsForQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("Failed to list assignments: %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("Expected exactly one assignment, got %d", len(assignments))
	}
	if assignments[0].UserID != user.ID {
		t.Errorf("Expected assignment to user %d, got %d", user.ID, assignments[0].UserID)
	}
}

func TestQuestionStore_CreateTask_AssignmentFailureRollsBackQuestion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.InsertUser(ctx, "Ada", "ada@example.com"); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	// Make the assignment insert fail mid-transaction
	if _, err := store.db.Exec("DROP TABLE question_assignments"); err != nil {
		t.Fatalf("Failed to drop assignments table: %v", err)
	}

	if _, _, err := store.CreateTask(ctx, "Churn", "content", nil, "ada@example.com"); err == nil {
		t.Fatal("Expected CreateTask to fail when the assignment insert fails")
	}

	// The question write must roll back with it
	questions, err := store.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("Failed to list questions: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("Expected no questions after rollback, got %d", len(questions))
	}
	if _, err := store.GetQuestion(ctx, 1); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("Expected ErrQuestionNotFound after rollback, got: %v", err)
	}
}

func TestQuestionStore_CreateTask_NoMatchProceedsUnassigned(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q, assignee, err := store.CreateTask(ctx, "Churn", "content", nil, "nobody@example.com")
	if err != nil {
		t.Fatalf("Expected task creation to proceed without a match: %v", err)
	}
	if assignee != nil {
		t.Errorf("Expected no assignee, got %+v", assignee)
	}

	assignments, err := store.AssignmentsForQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("Failed to list assignments: %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("Expected no assignments, got %d", len(assignments))
	}
}

func TestQuestionStore_ListQuestions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := store.InsertQuestion(ctx, title, "c", "", nil); err != nil {
			t.Fatalf("Failed to insert question %s: %v", title, err)
		}
	}

	questions, err := store.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("Failed to list questions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("Expected 3 questions, got %d", len(questions))
	}
	// Newest first
	if questions[0].Title != "third" {
		t.Errorf("Expected newest question first, got %s", questions[0].Title)
	}
}

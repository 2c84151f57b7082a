package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"insightdesk/internal/database"
	"insightdesk/internal/models"
)

// ErrQuestionNotFound is returned when a question ID does not exist
var ErrQuestionNotFound = errors.New("question not found")

// QuestionStore handles relational CRUD for users, questions and
// assignments. Referential integrity (unique email, FK existence, cascade
// delete) is enforced by the schema; violations come back wrapped in
// database.ErrConstraintViolation.
type QuestionStore struct {
	db *database.DB
}

// NewQuestionStore creates a new store backed by db
func NewQuestionStore(db *database.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// insertID runs an INSERT and returns the generated id for either dialect
func (s *QuestionStore) insertID(ctx context.Context, q execer, query string, args ...any) (int64, error) {
	if s.db.Dialect() == database.DialectPostgres {
		var id int64
		err := q.QueryRowContext(ctx, s.db.Rebind(query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertUser creates a user. Emails are unique
func (s *QuestionStore) InsertUser(ctx context.Context, name, email string) (*models.User, error) {
	now := time.Now().UTC()
	id, err := s.insertID(ctx, s.db,
		"INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)",
		name, email, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", database.WrapConstraint(err))
	}
	return &models.User{ID: id, Name: name, Email: email, CreatedAt: now}, nil
}

// FindUsersByEmail returns users matching email, zero or more
func (s *QuestionStore) FindUsersByEmail(ctx context.Context, email string) ([]models.User, error) {
	return s.findUsersByEmail(ctx, s.db, email)
}

func (s *QuestionStore) findUsersByEmail(ctx context.Context, q execer, email string) ([]models.User, error) {
	rows, err := q.QueryContext(ctx,
		s.db.Rebind("SELECT id, name, email, created_at FROM users WHERE email = ?"), email)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user; their assignments cascade
func (s *QuestionStore) DeleteUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// InsertQuestion persists a new question. An empty status defaults to todo
func (s *QuestionStore) InsertQuestion(ctx context.Context, title, content string, status models.QuestionStatus, referenceURLs []string) (*models.Question, error) {
	return s.insertQuestion(ctx, s.db, title, content, status, referenceURLs)
}

func (s *QuestionStore) insertQuestion(ctx context.Context, q execer, title, content string, status models.QuestionStatus, referenceURLs []string) (*models.Question, error) {
	if status == "" {
		status = models.QuestionStatusTodo
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: invalid status %q", database.ErrConstraintViolation, status)
	}

	if referenceURLs == nil {
		referenceURLs = []string{}
	}
	urls, err := json.Marshal(referenceURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reference urls: %w", err)
	}

	now := time.Now().UTC()
	id, err := s.insertID(ctx, q,
		"INSERT INTO questions (title, content, status, reference_urls, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		title, content, string(status), string(urls), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert question: %w", database.WrapConstraint(err))
	}

	return &models.Question{
		ID:            id,
		Title:         title,
		Content:       content,
		Status:        status,
		ReferenceURLs: referenceURLs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GetQuestion retrieves a question by id
func (s *QuestionStore) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(
		"SELECT id, title, content, status, reference_urls, created_at, updated_at FROM questions WHERE id = ?"), id)
	return scanQuestion(row)
}

func scanQuestion(row *sql.Row) (*models.Question, error) {
	var q models.Question
	var urls string
	err := row.Scan(&q.ID, &q.Title, &q.Content, &q.Status, &urls, &q.CreatedAt, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan question: %w", err)
	}
	if err := json.Unmarshal([]byte(urls), &q.ReferenceURLs); err != nil {
		return nil, fmt.Errorf("failed to decode reference urls: %w", err)
	}
	return &q, nil
}

// ListQuestions returns all questions, newest first
func (s *QuestionStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, content, status, reference_urls, created_at, updated_at FROM questions ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var urls string
		if err := rows.Scan(&q.ID, &q.Title, &q.Content, &q.Status, &urls, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(urls), &q.ReferenceURLs); err != nil {
			return nil, fmt.Errorf("failed to decode reference urls: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// DeleteQuestion removes a question; its assignments cascade
func (s *QuestionStore) DeleteQuestion(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM questions WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

// InsertAssignment links a question to a user. Both must exist
func (s *QuestionStore) InsertAssignment(ctx context.Context, questionID, userID int64) (*models.Assignment, error) {
	return s.insertAssignment(ctx, s.db, questionID, userID)
}

func (s *QuestionStore) insertAssignment(ctx context.Context, q execer, questionID, userID int64) (*models.Assignment, error) {
	now := time.Now().UTC()
	id, err := s.insertID(ctx, q,
		"INSERT INTO question_assignments (question_id, user_id, assigned_at) VALUES (?, ?, ?)",
		questionID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", database.WrapConstraint(err))
	}
	return &models.Assignment{ID: id, QuestionID: questionID, UserID: userID, AssignedAt: now}, nil
}

// AssignmentsForQuestion returns all assignments of a question
func (s *QuestionStore) AssignmentsForQuestion(ctx context.Context, questionID int64) ([]models.Assignment, error) {
	return s.queryAssignments(ctx, "question_id", questionID)
}

// AssignmentsForUser returns all assignments of a user
func (s *QuestionStore) AssignmentsForUser(ctx context.Context, userID int64) ([]models.Assignment, error) {
	return s.queryAssignments(ctx, "user_id", userID)
}

func (s *QuestionStore) queryAssignments(ctx context.Context, column string, id int64) ([]models.Assignment, error) {
	query := fmt.Sprintf(
		"SELECT id, question_id, user_id, assigned_at FROM question_assignments WHERE %s = ? ORDER BY id", column)
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// CreateTask inserts a question and, when assignEmail matches at least one
// user, an assignment to the first match — all in one transaction, so a
// failed assignment never leaves a half-created task behind.
// The assigned user is nil when assignEmail is empty or matches nobody.
func (s *QuestionStore) CreateTask(ctx context.Context, title, content string, referenceURLs []string, assignEmail string) (*models.Question, *models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	question, err := s.insertQuestion(ctx, tx, title, content, models.QuestionStatusTodo, referenceURLs)
	if err != nil {
		return nil, nil, err
	}

	var assignee *models.User
	if assignEmail != "" {
		users, err := s.findUsersByEmail(ctx, tx, assignEmail)
		if err != nil {
			return nil, nil, err
		}
		if len(users) > 0 {
			if _, err := s.insertAssignment(ctx, tx, question.ID, users[0].ID); err != nil {
				return nil, nil, err
			}
			assignee = &users[0]
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return question, assignee, nil
}

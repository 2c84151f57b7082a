package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/yuin/goldmark"

	"insightdesk/internal/services"
)

// TasksHandler handles analysis task requests
type TasksHandler struct {
	store     *services.QuestionStore
	converter goldmark.Markdown
}

// NewTasksHandler creates a new tasks handler
func NewTasksHandler(store *services.QuestionStore) *TasksHandler {
	return &TasksHandler{
		store:     store,
		converter: goldmark.New(),
	}
}

// List returns all analysis tasks, newest first
func (h *TasksHandler) List(c *fiber.Ctx) error {
	questions, err := h.store.ListQuestions(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list tasks",
		})
	}

	return c.JSON(fiber.Map{
		"tasks": questions,
		"count": len(questions),
	})
}

// Get returns one task with its assignments
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	question, err := h.store.GetQuestion(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrQuestionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load task",
		})
	}

	assignments, err := h.store.AssignmentsForQuestion(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load assignments",
		})
	}

	return c.JSON(fiber.Map{
		"task":        question,
		"assignments": assignments,
	})
}

// View renders the task content as an HTML page. This is the page behind
// the view_url returned by create_analysis_task.
func (h *TasksHandler) View(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid task ID")
	}

	question, err := h.store.GetQuestion(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrQuestionNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Task not found")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load task")
	}

	var body bytes.Buffer
	if err := h.converter.Convert([]byte(question.Content), &body); err != nil {
		// Fall back to the raw markdown rather than failing the page
		body.Reset()
		body.WriteString("<pre>" + html.EscapeString(question.Content) + "</pre>")
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<h1>%s</h1>
<p><strong>Status:</strong> %s</p>
%s
</body>
</html>`,
		html.EscapeString(question.Title),
		html.EscapeString(question.Title),
		html.EscapeString(string(question.Status)),
		body.String())

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(page)
}

// Delete removes a task and its assignments
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	if err := h.store.DeleteQuestion(c.Context(), id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete task",
		})
	}

	return c.JSON(fiber.Map{
		"deleted": id,
	})
}

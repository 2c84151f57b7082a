package handlers

import (
	"github.com/gofiber/fiber/v2"

	"insightdesk/internal/agents"
)

// AgentsHandler handles agent persona and session requests
type AgentsHandler struct {
	agents *agents.Service
}

// NewAgentsHandler creates a new agents handler
func NewAgentsHandler(service *agents.Service) *AgentsHandler {
	return &AgentsHandler{agents: service}
}

// List returns all agent personas
func (h *AgentsHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"agents": h.agents.List(),
	})
}

// Get returns one agent persona with its tool definitions
func (h *AgentsHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	agent, ok := h.agents.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Agent not found: " + id,
		})
	}

	defs, err := h.agents.ToolDefinitions(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build tool definitions",
		})
	}

	return c.JSON(fiber.Map{
		"agent": agent,
		"tools": defs,
	})
}

// StartSession opens a session with an agent
func (h *AgentsHandler) StartSession(c *fiber.Ctx) error {
	id := c.Params("id")

	session, err := h.agents.StartSession(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// ExecuteTool runs a tool inside a session, restricted to the session
// agent's tool set
func (h *AgentsHandler) ExecuteTool(c *fiber.Ctx) error {
	sessionID := c.Params("session")
	toolName := c.Params("name")

	args := make(map[string]interface{})
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&args); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON body",
			})
		}
	}

	result, err := h.agents.ExecuteTool(sessionID, toolName, args)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"tool":   toolName,
		"result": result,
	})
}

// EndSession discards a session
func (h *AgentsHandler) EndSession(c *fiber.Ctx) error {
	h.agents.EndSession(c.Params("session"))
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"sort"

	"github.com/gofiber/fiber/v2"

	"insightdesk/internal/tools"
)

// ToolsHandler handles tool-related requests
type ToolsHandler struct {
	registry *tools.Registry
}

// NewToolsHandler creates a new tools handler
func NewToolsHandler(registry *tools.Registry) *ToolsHandler {
	return &ToolsHandler{registry: registry}
}

// ToolResponse represents a tool in the API response
type ToolResponse struct {
	Name        string                 `json:"name"`
	DisplayName string                 `json:"display_name"`
	Description string                 `json:"description"`
	Icon        string                 `json:"icon"`
	Category    string                 `json:"category"`
	Keywords    []string               `json:"keywords"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// CategoryResponse represents a category with its tools
type CategoryResponse struct {
	Name  string         `json:"name"`
	Count int            `json:"count"`
	Tools []ToolResponse `json:"tools"`
}

// ListTools returns all registered tools grouped by category
func (h *ToolsHandler) ListTools(c *fiber.Ctx) error {
	categoryMap := make(map[string][]ToolResponse)

	for _, info := range h.registry.ListDetailed() {
		tool, exists := h.registry.Get(info.Name)
		if !exists {
			continue
		}

		category := tool.Category
		if category == "" {
			category = "other"
		}

		categoryMap[category] = append(categoryMap[category], ToolResponse{
			Name:        tool.Name,
			DisplayName: tool.DisplayName,
			Description: tool.Description,
			Icon:        tool.Icon,
			Category:    category,
			Keywords:    tool.Keywords,
			Parameters:  tool.Parameters,
		})
	}

	categories := make([]CategoryResponse, 0, len(categoryMap))
	for categoryName, categoryTools := range categoryMap {
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})
		categories = append(categories, CategoryResponse{
			Name:  categoryName,
			Count: len(categoryTools),
			Tools: categoryTools,
		})
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})

	return c.JSON(fiber.Map{
		"categories": categories,
		"total":      h.registry.Count(),
	})
}

// ExecuteTool runs a named tool with JSON arguments from the request body
func (h *ToolsHandler) ExecuteTool(c *fiber.Ctx) error {
	name := c.Params("name")
	if _, exists := h.registry.Get(name); !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Tool not found: " + name,
		})
	}

	args := make(map[string]interface{})
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&args); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON body",
			})
		}
	}

	result, err := h.registry.Execute(name, args)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"tool":   name,
		"result": result,
	})
}

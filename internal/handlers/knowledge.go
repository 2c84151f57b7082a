package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"insightdesk/internal/services"
)

// KnowledgeHandler handles knowledge corpus search requests
type KnowledgeHandler struct {
	searcher services.KnowledgeSearcher
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(searcher services.KnowledgeSearcher) *KnowledgeHandler {
	return &KnowledgeHandler{searcher: searcher}
}

// Search runs a corpus search. Query comes from ?q=, optional comma
// separated tags from ?tags=.
func (h *KnowledgeHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter 'q' is required",
		})
	}

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}

	return c.JSON(h.searcher.Search(query, tags))
}

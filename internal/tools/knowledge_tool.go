package tools

import (
	"encoding/json"
	"fmt"

	"insightdesk/internal/services"
)

// NewSearchKnowledgeTool creates the search_knowledge tool
func NewSearchKnowledgeTool(searcher services.KnowledgeSearcher) *Tool {
	return &Tool{
		Name:        "search_knowledge",
		DisplayName: "Search Knowledge Base",
		Description: "Search for existing analysis answers and insights before starting new work. Matches the query against previous questions and answers; optional tags narrow the results.",
		Icon:        "BookOpen",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query or question to find relevant analyses",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Optional tags to filter analyses by",
				},
			},
			"required": []string{"query"},
		},
		Execute:  executeSearchKnowledge(searcher),
		Category: "data_sources",
		Keywords: []string{"knowledge", "search", "previous", "analysis", "answers", "duplicate", "corpus"},
	}
}

func executeSearchKnowledge(searcher services.KnowledgeSearcher) ExecuteFunc {
	return func(args map[string]interface{}) (string, error) {
		query, ok := args["query"].(string)
		if !ok || query == "" {
			return "", fmt.Errorf("query parameter is required and must be a string")
		}

		result := searcher.Search(query, stringSlice(args["tags"]))

		encoded, err := json.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return string(encoded), nil
	}
}

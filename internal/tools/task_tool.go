package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"insightdesk/internal/models"
	"insightdesk/internal/services"
)

// NewCreateAnalysisTaskTool creates the create_analysis_task tool
func NewCreateAnalysisTaskTool(svc *services.TaskService) *Tool {
	return &Tool{
		Name:        "create_analysis_task",
		DisplayName: "Create Analysis Task",
		Description: "Create a task for human analysts when uncertain about data analysis results. Provide the original query, why human analysis is needed, and any relevant data as evidence.",
		Icon:        "ClipboardList",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Title of the analysis task",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Detailed description of what needs to be analyzed",
				},
				"context": map[string]interface{}{
					"type":        "object",
					"description": "Escalation context",
					"properties": map[string]interface{}{
						"query": map[string]interface{}{
							"type":        "string",
							"description": "The original query that led to this task",
						},
						"data": map[string]interface{}{
							"type":        "object",
							"description": "Relevant data or query results",
						},
						"uncertainty": map[string]interface{}{
							"type":        "string",
							"description": "Description of why human analysis is needed",
						},
						"suggested_approach": map[string]interface{}{
							"type":        "string",
							"description": "Optional suggested approach for the analyst",
						},
					},
					"required": []string{"query", "uncertainty"},
				},
				"reference_urls": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Related URLs or documentation",
				},
				"assign_to": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Email addresses of analysts to assign",
				},
			},
			"required": []string{"title", "content", "context"},
		},
		Execute:  executeCreateAnalysisTask(svc),
		Category: "escalation",
		Keywords: []string{"task", "escalate", "human", "analyst", "assign", "question", "uncertain"},
	}
}

func executeCreateAnalysisTask(svc *services.TaskService) ExecuteFunc {
	return func(args map[string]interface{}) (string, error) {
		req, err := parseCreateTaskArgs(args)
		if err != nil {
			return "", err
		}

		// Failures come back inside the result, never as a Go error
		result := svc.CreateAnalysisTask(context.Background(), req)

		encoded, err := json.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return string(encoded), nil
	}
}

func parseCreateTaskArgs(args map[string]interface{}) (models.CreateTaskRequest, error) {
	var req models.CreateTaskRequest

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return req, fmt.Errorf("title parameter is required and must be a string")
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return req, fmt.Errorf("content parameter is required and must be a string")
	}

	taskCtx, ok := args["context"].(map[string]interface{})
	if !ok {
		return req, fmt.Errorf("context parameter is required and must be an object")
	}
	query, ok := taskCtx["query"].(string)
	if !ok || query == "" {
		return req, fmt.Errorf("context.query is required and must be a string")
	}
	uncertainty, ok := taskCtx["uncertainty"].(string)
	if !ok || uncertainty == "" {
		return req, fmt.Errorf("context.uncertainty is required and must be a string")
	}

	req.Title = title
	req.Content = content
	req.Context = models.TaskContext{
		Query:       query,
		Uncertainty: uncertainty,
	}
	if data, ok := taskCtx["data"].(map[string]interface{}); ok {
		req.Context.Data = data
	}
	if approach, ok := taskCtx["suggested_approach"].(string); ok {
		req.Context.SuggestedApproach = approach
	}
	req.ReferenceURLs = stringSlice(args["reference_urls"])
	req.AssignTo = stringSlice(args["assign_to"])

	return req, nil
}

// stringSlice extracts a []string from a decoded JSON array argument
func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

package tools

import (
	"encoding/json"
	"fmt"

	"insightdesk/internal/models"
	"insightdesk/internal/services"
)

// NewDiscoverInsightsTool creates the discover_insights tool
func NewDiscoverInsightsTool(provider services.InsightProvider) *Tool {
	return &Tool{
		Name:        "discover_insights",
		DisplayName: "Discover Insights",
		Description: "Automatically discover interesting patterns and insights in data: trends, anomalies, correlations and distributions. Focus on specific metric columns and optionally a time column.",
		Icon:        "Lightbulb",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"data": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "object"},
					"description": "Dataset to analyze",
				},
				"focus": map[string]interface{}{
					"type":        "object",
					"description": "Which columns to analyze",
					"properties": map[string]interface{}{
						"metrics": map[string]interface{}{
							"type":        "array",
							"items":       map[string]interface{}{"type": "string"},
							"description": "Numeric columns to analyze",
						},
						"dimensions": map[string]interface{}{
							"type":        "array",
							"items":       map[string]interface{}{"type": "string"},
							"description": "Categorical columns to group by",
						},
						"time_column": map[string]interface{}{
							"type":        "string",
							"description": "Column containing timestamps",
						},
					},
					"required": []string{"metrics"},
				},
				"options": map[string]interface{}{
					"type":        "object",
					"description": "Discovery tuning",
					"properties": map[string]interface{}{
						"min_confidence": map[string]interface{}{
							"type":        "number",
							"description": "Minimum confidence score (0-1, default 0.7)",
						},
						"max_insights": map[string]interface{}{
							"type":        "number",
							"description": "Maximum number of insights to return (default 5)",
						},
						"insight_types": map[string]interface{}{
							"type":        "array",
							"items":       map[string]interface{}{"type": "string"},
							"description": "Restrict to these insight types",
						},
					},
				},
			},
			"required": []string{"data", "focus"},
		},
		Execute:  executeDiscoverInsights(provider),
		Category: "computation",
		Keywords: []string{"insights", "patterns", "trends", "anomaly", "correlation", "statistics", "discover"},
	}
}

func executeDiscoverInsights(provider services.InsightProvider) ExecuteFunc {
	return func(args map[string]interface{}) (string, error) {
		focusArg, ok := args["focus"].(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("focus parameter is required and must be an object")
		}

		focus := models.InsightFocus{
			Metrics:    stringSlice(focusArg["metrics"]),
			Dimensions: stringSlice(focusArg["dimensions"]),
		}
		if tc, ok := focusArg["time_column"].(string); ok {
			focus.TimeColumn = tc
		}
		if len(focus.Metrics) == 0 {
			return "", fmt.Errorf("focus.metrics is required and must name at least one column")
		}

		var data []map[string]any
		if raw, ok := args["data"].([]interface{}); ok {
			for _, item := range raw {
				if row, ok := item.(map[string]interface{}); ok {
					data = append(data, row)
				}
			}
		}

		opts := models.DefaultInsightOptions()
		if optsArg, ok := args["options"].(map[string]interface{}); ok {
			if mc, ok := optsArg["min_confidence"].(float64); ok && mc > 0 && mc <= 1 {
				opts.MinConfidence = mc
			}
			if mi, ok := optsArg["max_insights"].(float64); ok && mi > 0 {
				opts.MaxInsights = int(mi)
			}
			for _, name := range stringSlice(optsArg["insight_types"]) {
				opts.InsightTypes = append(opts.InsightTypes, models.InsightType(name))
			}
		}

		report, err := provider.Discover(data, focus, opts)
		if err != nil {
			return "", fmt.Errorf("insight discovery failed: %w", err)
		}

		encoded, err := json.Marshal(report)
		if err != nil {
			return "", fmt.Errorf("failed to encode report: %w", err)
		}
		return string(encoded), nil
	}
}

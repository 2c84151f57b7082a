package tools

import (
	"fmt"
	"sync"
	"time"

	"insightdesk/internal/services"
)

// Tool represents a callable tool with its metadata and execution function
type Tool struct {
	Name        string
	DisplayName string // User-friendly name (e.g., "Search Knowledge Base")
	Description string
	Parameters  map[string]interface{} // JSON schema for the arguments
	Icon        string
	Execute     ExecuteFunc
	Category    string // Tool category: data_sources, computation, visualization, web, escalation
	Keywords    []string
}

// ExecuteFunc is the function signature for tool execution
type ExecuteFunc func(args map[string]interface{}) (string, error)

// Registry manages all available tools. Tools are registered explicitly at
// startup; there is no global instance, the registry is handed to whoever
// needs it.
type Registry struct {
	tools map[string]*Tool
	mutex sync.RWMutex
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a new tool to the registry
func (r *Registry) Register(tool *Tool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if tool.Execute == nil {
		return fmt.Errorf("tool %s must have an Execute function", tool.Name)
	}

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s is already registered", tool.Name)
	}

	r.tools[tool.Name] = tool
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tools in OpenAI tool format
func (r *Registry) List() []map[string]interface{} {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tools := make([]map[string]interface{}, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  tool.Parameters,
			},
		})
	}
	return tools
}

// Execute runs a tool by name with given arguments and records metrics
func (r *Registry) Execute(name string, args map[string]interface{}) (string, error) {
	tool, exists := r.Get(name)
	if !exists {
		return "", fmt.Errorf("tool %s not found", name)
	}

	start := time.Now()
	result, err := tool.Execute(args)
	services.GetMetrics().ToolLatency.Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	services.GetMetrics().ToolExecutions.WithLabelValues(name, outcome).Inc()

	return result, err
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.tools)
}

// ToolInfo is a JSON-serializable representation of a Tool (without the Execute function)
type ToolInfo struct {
	Name        string                 `json:"name"`
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description"`
	Icon        string                 `json:"icon"`
	Category    string                 `json:"category"`
	Parameters  map[string]interface{} `json:"parameters"`
	Keywords    []string               `json:"keywords"`
}

// ListDetailed returns all tools with full metadata (for the tool catalog API)
func (r *Registry) ListDetailed() []ToolInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]ToolInfo, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, ToolInfo{
			Name:        tool.Name,
			DisplayName: tool.DisplayName,
			Description: tool.Description,
			Icon:        tool.Icon,
			Category:    tool.Category,
			Parameters:  tool.Parameters,
			Keywords:    tool.Keywords,
		})
	}
	return result
}

// GetToolsByCategory returns all tools in a specific category
func (r *Registry) GetToolsByCategory(category string) []*Tool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var categoryTools []*Tool
	for _, tool := range r.tools {
		if tool.Category == category {
			categoryTools = append(categoryTools, tool)
		}
	}
	return categoryTools
}

// GetCategories returns a map of category names to their tool counts
func (r *Registry) GetCategories() map[string]int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	categories := make(map[string]int)
	for _, tool := range r.tools {
		if tool.Category != "" {
			categories[tool.Category]++
		}
	}
	return categories
}

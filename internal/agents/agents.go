package agents

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"insightdesk/internal/logging"
	"insightdesk/internal/tools"
)

// Agent is a persona: a name, its operating instructions, and the subset
// of registered tools it is allowed to call.
type Agent struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Instructions string   `json:"instructions"`
	ToolNames    []string `json:"tools"`
}

// Session is one conversation with an agent.
type Session struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	StartedAt time.Time `json:"started_at"`
}

const dataAnalystInstructions = `I am a data analyst agent that can help analyze data and provide insights.
I can:
- Write efficient SQL queries to extract relevant information
- Check previous similar questions using search_knowledge to avoid duplicate analysis
- Provide clear, actionable insights from the data
- Create data visualizations as PNG charts
- Create tasks for human analysts when deeper analysis is needed

Before writing new queries:
- Always check previous similar questions using search_knowledge
- Validate assumptions about the data structure using get_schema_info
- Consider data quality and limitations

When uncertain about analysis:
- Create a task for human analysts using create_analysis_task
- Clearly explain why human analysis is needed
- Provide all relevant context and data

Keep responses concise but informative, and always validate data assumptions.

Important notes:
- Avoid SQL queries that return too much data, such as queries that don't have an aggregate function. If you must, use a LIMIT clause to return only the necessary data or a sample.`

const browsingInstructions = `I am a web browsing agent that can look up information on the public web.
I can:
- Load and read pages, including JavaScript-heavy ones, using browse_page
- Capture full-page screenshots using screenshot_page
- Click, type, and navigate inside pages using act_in_page to get past cookie banners or load-more buttons
- Check previous similar questions using search_knowledge before browsing
- Create a task for human analysts using create_analysis_task when a source needs judgment I cannot apply

I always respect robots.txt and never browse internal or private hosts.
I summarize what a page says and cite the source URL instead of pasting raw page content.`

func builtinAgents() []*Agent {
	return []*Agent{
		{
			ID:           "data-analyst",
			Name:         "Data Analyst Agent",
			Instructions: dataAnalystInstructions,
			ToolNames: []string{
				"get_schema_info",
				"query_database",
				"search_knowledge",
				"discover_insights",
				"create_visualization",
				"create_analysis_task",
			},
		},
		{
			ID:           "web-browser",
			Name:         "Browsing Agent",
			Instructions: browsingInstructions,
			ToolNames: []string{
				"browse_page",
				"screenshot_page",
				"act_in_page",
				"search_knowledge",
				"create_analysis_task",
			},
		},
	}
}

// Service exposes the built-in agent personas and their sessions.
type Service struct {
	registry *tools.Registry

	mu       sync.RWMutex
	agents   []*Agent
	byID     map[string]*Agent
	sessions map[string]*Session
}

// NewService builds the agent service over a tool registry. Tool names an
// agent references must already be registered.
func NewService(registry *tools.Registry) (*Service, error) {
	s := &Service{
		registry: registry,
		byID:     make(map[string]*Agent),
		sessions: make(map[string]*Session),
	}

	for _, agent := range builtinAgents() {
		for _, toolName := range agent.ToolNames {
			if _, ok := registry.Get(toolName); !ok {
				return nil, fmt.Errorf("agent %s references unregistered tool %s", agent.ID, toolName)
			}
		}
		s.agents = append(s.agents, agent)
		s.byID[agent.ID] = agent
	}

	log.Printf("🤖 [AGENTS] Loaded %d agent personas", len(s.agents))
	return s, nil
}

// List returns all agent personas.
func (s *Service) List() []*Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Agent, len(s.agents))
	copy(result, s.agents)
	return result
}

// Get returns an agent by ID.
func (s *Service) Get(id string) (*Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.byID[id]
	return agent, ok
}

// ToolDefinitions returns the agent's tools in OpenAI function format,
// ready to be sent with a completion request.
func (s *Service) ToolDefinitions(agentID string) ([]map[string]interface{}, error) {
	agent, ok := s.Get(agentID)
	if !ok {
		return nil, fmt.Errorf("agent not found: %s", agentID)
	}

	defs := make([]map[string]interface{}, 0, len(agent.ToolNames))
	for _, toolName := range agent.ToolNames {
		tool, ok := s.registry.Get(toolName)
		if !ok {
			continue
		}
		defs = append(defs, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  tool.Parameters,
			},
		})
	}
	return defs, nil
}

// StartSession opens a new session with an agent.
func (s *Service) StartSession(agentID string) (*Session, error) {
	if _, ok := s.Get(agentID); !ok {
		return nil, fmt.Errorf("agent not found: %s", agentID)
	}

	session := &Session{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Printf("🤖 [AGENTS] Started session %s with agent %s", session.ID, agentID)
	return session, nil
}

// GetSession returns a session by ID.
func (s *Service) GetSession(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	return session, ok
}

// EndSession discards a session.
func (s *Service) EndSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// ExecuteTool runs a tool on behalf of a session. The tool must be in the
// session agent's allowed set.
func (s *Service) ExecuteTool(sessionID, toolName string, args map[string]interface{}) (string, error) {
	session, ok := s.GetSession(sessionID)
	if !ok {
		return "", fmt.Errorf("session not found: %s", sessionID)
	}
	agent, ok := s.Get(session.AgentID)
	if !ok {
		return "", fmt.Errorf("agent not found: %s", session.AgentID)
	}

	allowed := false
	for _, name := range agent.ToolNames {
		if name == toolName {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("tool %s is not available to agent %s", toolName, agent.ID)
	}

	logging.WithTool(toolName, agent.ID, sessionID).Debug("executing tool")
	return s.registry.Execute(toolName, args)
}

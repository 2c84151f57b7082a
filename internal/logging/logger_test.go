package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestWithTool(t *testing.T) {
	buf := captureJSON(t)

	WithTool("query_database", "data-analyst", "session-1").Info("executing tool")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	if entry["tool"] != "query_database" {
		t.Errorf("Expected tool field query_database, got %v", entry["tool"])
	}
	if entry["agent_id"] != "data-analyst" {
		t.Errorf("Expected agent_id data-analyst, got %v", entry["agent_id"])
	}
	if entry["session_id"] != "session-1" {
		t.Errorf("Expected session_id session-1, got %v", entry["session_id"])
	}
}

func TestWithTask(t *testing.T) {
	buf := captureJSON(t)

	WithTask(slog.Default(), 42, "Churn analysis").Info("task assigned")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	if entry["task_id"] != float64(42) {
		t.Errorf("Expected task_id 42, got %v", entry["task_id"])
	}
	if entry["task_title"] != "Churn analysis" {
		t.Errorf("Expected task_title, got %v", entry["task_title"])
	}
}

package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"insightdesk/internal/models"
)

func newKnowledgeService(t *testing.T) *KnowledgeService {
	t.Helper()
	svc, err := NewKnowledgeService("")
	if err != nil {
		t.Fatalf("Failed to create knowledge service: %v", err)
	}
	return svc
}

func TestKnowledgeSearch_MatchesQuestionText(t *testing.T) {
	svc := newKnowledgeService(t)

	result := svc.Search("churn rate", nil)

	if result.Count < 1 {
		t.Fatalf("Expected at least one match for 'churn rate', got %d", result.Count)
	}
	if !strings.Contains(result.Results[0].Question, "churn rate") {
		t.Errorf("Expected churn entry first, got: %s", result.Results[0].Question)
	}
	if !strings.Contains(result.Message, "Found") {
		t.Errorf("Expected a found message, got: %s", result.Message)
	}
}

func TestKnowledgeSearch_MatchesAnswerText(t *testing.T) {
	svc := newKnowledgeService(t)

	// "customer success program" only appears in an answer
	result := svc.Search("customer success program", nil)
	if result.Count != 1 {
		t.Fatalf("Expected one answer-text match, got %d", result.Count)
	}
}

func TestKnowledgeSearch_CaseInsensitive(t *testing.T) {
	svc := newKnowledgeService(t)

	result := svc.Search("CHURN RATE", nil)
	if result.Count < 1 {
		t.Errorf("Expected case-insensitive match, got %d results", result.Count)
	}
}

func TestKnowledgeSearch_NoMatchReturnsEmptySet(t *testing.T) {
	svc := newKnowledgeService(t)

	result := svc.Search("zzz-no-match", nil)

	if result.Count != 0 {
		t.Errorf("Expected empty result for a non-matching query, got %d", result.Count)
	}
	if len(result.Results) != 0 {
		t.Errorf("Expected no entries, got %d", len(result.Results))
	}
	if result.Message != "No existing analyses found for this query" {
		t.Errorf("Unexpected message: %s", result.Message)
	}
}

func TestKnowledgeSearch_TagFilter(t *testing.T) {
	svc := newKnowledgeService(t)

	// Matches the churn entry text AND its tag
	result := svc.Search("churn", []string{"customer retention"})
	if result.Count != 1 {
		t.Fatalf("Expected one match with tag filter, got %d", result.Count)
	}

	// Text matches but the tag does not
	result = svc.Search("churn", []string{"unrelated tag"})
	if result.Count != 0 {
		t.Errorf("Expected no match when tags do not overlap, got %d", result.Count)
	}
}

func TestKnowledgeSearch_TagsNormalized(t *testing.T) {
	svc := newKnowledgeService(t)

	result := svc.Search("churn", []string{"  Customer Retention "})
	if result.Count != 1 {
		t.Errorf("Expected tag matching to normalize case and whitespace, got %d", result.Count)
	}
}

func TestKnowledgeSearch_SortedByDateDescending(t *testing.T) {
	svc := newKnowledgeService(t)

	// "the" appears in every corpus entry
	result := svc.Search("the", nil)
	if result.Count < 2 {
		t.Fatalf("Expected multiple matches, got %d", result.Count)
	}

	for i := 1; i < len(result.Results); i++ {
		prev := result.Results[i-1].CreatedAt
		curr := result.Results[i].CreatedAt
		if prev < curr {
			t.Errorf("Results not sorted newest first: %s before %s", prev, curr)
		}
	}
}

func TestKnowledgeSearch_OutputExcludesTags(t *testing.T) {
	svc := newKnowledgeService(t)

	result := svc.Search("churn rate", nil)
	if result.Count == 0 {
		t.Fatal("Expected a match")
	}

	encoded, err := json.Marshal(result.Results[0])
	if err != nil {
		t.Fatalf("Failed to marshal match: %v", err)
	}
	if strings.Contains(string(encoded), "tags") {
		t.Errorf("Tags must not appear in tool output: %s", encoded)
	}
}

func TestKnowledgeService_CorpusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	entries := []models.KnowledgeEntry{
		{
			ID:        "custom-1",
			Question:  "How many widgets were sold?",
			Answer:    "About 12,000 widgets in Q1.",
			URL:       "https://example.com/widgets",
			Tags:      []string{"widgets"},
			CreatedAt: "2025-06-01",
		},
	}
	data, _ := json.Marshal(entries)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write corpus file: %v", err)
	}

	svc, err := NewKnowledgeService(path)
	if err != nil {
		t.Fatalf("Failed to load corpus file: %v", err)
	}
	defer svc.Close()

	result := svc.Search("widgets", nil)
	if result.Count != 1 {
		t.Fatalf("Expected one match from the file corpus, got %d", result.Count)
	}

	// Default corpus must have been replaced
	if got := svc.Search("churn rate", nil); got.Count != 0 {
		t.Errorf("Expected file corpus to replace the default, got %d churn matches", got.Count)
	}
}

func TestKnowledgeService_CorpusFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("Failed to write corpus file: %v", err)
	}

	if _, err := NewKnowledgeService(path); err == nil {
		t.Error("Expected error for malformed corpus file")
	}
}

func TestKnowledgeSearch_CachedResult(t *testing.T) {
	svc := newKnowledgeService(t)

	first := svc.Search("churn rate", nil)
	second := svc.Search("churn rate", nil)

	// Same pointer means the second call was served from cache
	if first != second {
		t.Error("Expected repeated search to be served from cache")
	}
}

package models

import "time"

// KnowledgeEntry is one previously completed analysis in the corpus.
// Entries are immutable and sourced out-of-band; dates use YYYY-MM-DD.
type KnowledgeEntry struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Attachments []string `json:"attachments,omitempty"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

// CreatedTime parses the entry date; zero time if malformed
func (e KnowledgeEntry) CreatedTime() time.Time {
	t, err := time.Parse("2006-01-02", e.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// KnowledgeMatch is a search hit. Tags are intentionally excluded from
// tool output.
type KnowledgeMatch struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Attachments []string `json:"attachments,omitempty"`
	URL         string   `json:"url"`
	CreatedAt   string   `json:"created_at"`
}

// KnowledgeSearchResult is the output of the search_knowledge tool
type KnowledgeSearchResult struct {
	Results []KnowledgeMatch `json:"results"`
	Count   int              `json:"count"`
	Message string           `json:"message"`
}

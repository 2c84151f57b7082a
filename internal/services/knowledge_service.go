package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	cache "github.com/patrickmn/go-cache"

	"insightdesk/internal/models"
)

// KnowledgeService answers "has this been analyzed before" queries over a
// fixed corpus of completed analyses. The corpus is provided out-of-band:
// either the compiled-in default or a JSON file, hot-reloaded on change.
//
// A real search index can replace this by implementing KnowledgeSearcher.
type KnowledgeService struct {
	mu      sync.RWMutex
	corpus  []models.KnowledgeEntry
	results *cache.Cache
	watcher *fsnotify.Watcher
	path    string
}

// KnowledgeSearcher is the lookup capability the tools depend on
type KnowledgeSearcher interface {
	Search(query string, tags []string) *models.KnowledgeSearchResult
}

// NewKnowledgeService creates a service over the corpus at path, or the
// built-in default corpus when path is empty.
func NewKnowledgeService(path string) (*KnowledgeService, error) {
	s := &KnowledgeService{
		corpus:  defaultCorpus(),
		results: cache.New(5*time.Minute, 10*time.Minute),
		path:    path,
	}

	if path != "" {
		if err := s.loadCorpus(); err != nil {
			return nil, err
		}
	}

	log.Printf("📚 [KNOWLEDGE] Corpus loaded: %d entries", len(s.corpus))
	return s, nil
}

// loadCorpus replaces the corpus from the configured JSON file
func (s *KnowledgeService) loadCorpus() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read corpus file: %w", err)
	}

	var entries []models.KnowledgeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse corpus JSON: %w", err)
	}

	s.mu.Lock()
	s.corpus = entries
	s.mu.Unlock()
	s.results.Flush()
	return nil
}

// Watch reloads the corpus whenever the file changes on disk.
// No-op when the service runs on the built-in corpus.
func (s *KnowledgeService) Watch() error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create corpus watcher: %w", err)
	}
	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch corpus file: %w", err)
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.loadCorpus(); err != nil {
					log.Printf("⚠️  [KNOWLEDGE] Corpus reload failed: %v", err)
					continue
				}
				s.mu.RLock()
				n := len(s.corpus)
				s.mu.RUnlock()
				log.Printf("🔄 [KNOWLEDGE] Corpus reloaded: %d entries", n)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  [KNOWLEDGE] Corpus watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the corpus watcher if one is running
func (s *KnowledgeService) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Search matches query case-insensitively as a substring of each entry's
// question or answer text. When tags are supplied, an entry must also share
// at least one case-normalized tag. Results come back newest first, ties in
// corpus order; a query matching nothing returns an empty result set.
func (s *KnowledgeService) Search(query string, tags []string) *models.KnowledgeSearchResult {
	GetMetrics().KnowledgeSearches.Inc()

	key := searchCacheKey(query, tags)
	if cached, found := s.results.Get(key); found {
		GetMetrics().KnowledgeCacheHits.Inc()
		return cached.(*models.KnowledgeSearchResult)
	}

	s.mu.RLock()
	corpus := s.corpus
	s.mu.RUnlock()

	needle := strings.ToLower(query)

	wantTags := make(map[string]bool, len(tags))
	for _, tag := range tags {
		wantTags[strings.ToLower(strings.TrimSpace(tag))] = true
	}

	var matched []models.KnowledgeEntry
	for _, entry := range corpus {
		if !strings.Contains(strings.ToLower(entry.Question), needle) &&
			!strings.Contains(strings.ToLower(entry.Answer), needle) {
			continue
		}
		if len(wantTags) > 0 && !hasAnyTag(entry.Tags, wantTags) {
			continue
		}
		matched = append(matched, entry)
	}

	// Newest first; SliceStable keeps corpus order for equal dates
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedTime().After(matched[j].CreatedTime())
	})

	results := make([]models.KnowledgeMatch, 0, len(matched))
	for _, entry := range matched {
		results = append(results, models.KnowledgeMatch{
			Question:    entry.Question,
			Answer:      entry.Answer,
			Attachments: entry.Attachments,
			URL:         entry.URL,
			CreatedAt:   entry.CreatedAt,
		})
	}

	message := "No existing analyses found for this query"
	if len(results) > 0 {
		message = fmt.Sprintf("Found %d relevant analyses", len(results))
	}

	result := &models.KnowledgeSearchResult{
		Results: results,
		Count:   len(results),
		Message: message,
	}
	s.results.Set(key, result, cache.DefaultExpiration)
	return result
}

func hasAnyTag(entryTags []string, want map[string]bool) bool {
	for _, tag := range entryTags {
		if want[strings.ToLower(tag)] {
			return true
		}
	}
	return false
}

func searchCacheKey(query string, tags []string) string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(tag)))
	}
	sort.Strings(normalized)
	return strings.ToLower(query) + "|" + strings.Join(normalized, ",")
}

// defaultCorpus is the compiled-in stand-in for a real analysis archive
func defaultCorpus() []models.KnowledgeEntry {
	return []models.KnowledgeEntry{
		{
			ID:       "analysis-1",
			Question: "What is the average order value by customer segment?",
			Answer: "Our analysis shows that Enterprise customers have the highest average order value " +
				"at $5,200, followed by SMB at $1,800, and Individual customers at $150. Enterprise " +
				"segment shows 3x higher value than SMB.",
			Attachments: []string{"order_value_chart.png"},
			URL:         "https://analytics.example.com/reports/customer-segments-2024",
			Tags:        []string{"customer segmentation", "revenue analysis", "order value"},
			CreatedAt:   "2024-01-15",
		},
		{
			ID:       "analysis-2",
			Question: "Which products have the highest profit margin?",
			Answer: "Premium subscription plans show the highest profit margin at 85%, followed by " +
				"Enterprise licenses at 75%. Hardware products have lower margins ranging from 25-35% " +
				"due to manufacturing and shipping costs.",
			Attachments: []string{"margin_comparison.pdf", "product_profitability.xlsx"},
			URL:         "https://analytics.example.com/reports/product-profitability",
			Tags:        []string{"product analysis", "profitability", "margins"},
			CreatedAt:   "2024-02-01",
		},
		{
			ID:       "analysis-3",
			Question: "What is the customer churn rate trend?",
			Answer: "Monthly churn rate has decreased from 3.2% to 1.8% over the past quarter. This " +
				"improvement is attributed to the new customer success program and improved product " +
				"onboarding.",
			Attachments: []string{"churn_trend.png", "retention_analysis.pdf"},
			URL:         "https://analytics.example.com/reports/churn-analysis-q1",
			Tags:        []string{"churn", "customer retention", "trend analysis"},
			CreatedAt:   "2024-03-01",
		},
	}
}

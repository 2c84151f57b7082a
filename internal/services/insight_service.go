package services

import (
	"fmt"
	"sort"

	"insightdesk/internal/models"
)

// InsightProvider discovers patterns in tabular data. The static provider
// below stands in for a real statistical engine; swapping in one does not
// change the tool or caller contracts.
type InsightProvider interface {
	Discover(data []map[string]any, focus models.InsightFocus, opts models.InsightOptions) (*models.InsightReport, error)
}

// StaticInsightProvider returns a fixed set of representative insights,
// filtered and ranked by the requested options.
type StaticInsightProvider struct{}

// NewStaticInsightProvider creates the stand-in provider
func NewStaticInsightProvider() *StaticInsightProvider {
	return &StaticInsightProvider{}
}

// Discover produces canned insights: a trend when a time column is in
// focus, plus correlation, anomaly and distribution findings. Results are
// filtered by minimum confidence, ordered by importance and capped.
func (p *StaticInsightProvider) Discover(data []map[string]any, focus models.InsightFocus, opts models.InsightOptions) (*models.InsightReport, error) {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = models.DefaultInsightOptions().MinConfidence
	}
	if opts.MaxInsights <= 0 {
		opts.MaxInsights = models.DefaultInsightOptions().MaxInsights
	}

	var insights []models.Insight

	if focus.TimeColumn != "" {
		insights = append(insights, models.Insight{
			Type:           models.InsightTrend,
			Description:    "Significant upward trend detected in monthly revenue",
			Importance:     0.9,
			Confidence:     0.85,
			RelatedColumns: []string{"revenue", "month"},
			Details: models.ShiftDetails{
				Before: 100000,
				After:  150000,
				Change: 0.5,
				Unit:   "USD",
			},
		})
	}

	insights = append(insights,
		models.Insight{
			Type:           models.InsightCorrelation,
			Description:    "Strong positive correlation between customer age and purchase value",
			Importance:     0.8,
			Confidence:     0.92,
			RelatedColumns: []string{"customer_age", "purchase_value"},
			Details: models.CorrelationDetails{
				Coefficient: 0.78,
				Direction:   "positive",
				Strength:    "strong",
			},
		},
		models.Insight{
			Type:           models.InsightAnomaly,
			Description:    "Unusual spike in order cancellations detected",
			Importance:     0.95,
			Confidence:     0.88,
			RelatedColumns: []string{"cancellation_rate", "date"},
			Details: models.ShiftDetails{
				Before: 0.02,
				After:  0.08,
				Change: 4,
				Unit:   "ratio",
			},
		},
		models.Insight{
			Type:           models.InsightDistribution,
			Description:    "Customer satisfaction scores show bimodal distribution",
			Importance:     0.75,
			Confidence:     0.82,
			RelatedColumns: []string{"satisfaction_score"},
			Details: models.DistributionDetails{
				Peaks:  []float64{3.2, 4.8},
				Mean:   4.0,
				Median: 4.2,
				Unit:   "score",
				Shape:  "bimodal",
			},
		},
	)

	wantTypes := make(map[models.InsightType]bool, len(opts.InsightTypes))
	for _, t := range opts.InsightTypes {
		wantTypes[t] = true
	}

	filtered := insights[:0]
	for _, insight := range insights {
		if insight.Confidence < opts.MinConfidence {
			continue
		}
		if len(wantTypes) > 0 && !wantTypes[insight.Type] {
			continue
		}
		filtered = append(filtered, insight)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Importance > filtered[j].Importance
	})
	if len(filtered) > opts.MaxInsights {
		filtered = filtered[:opts.MaxInsights]
	}

	return &models.InsightReport{
		Insights: filtered,
		Summary:  fmt.Sprintf("Discovered %d significant insights in the data", len(filtered)),
		Recommendations: []string{
			"Consider investigating the cause of increased cancellations",
			"Leverage age-based targeting for marketing campaigns",
			"Investigate factors causing bimodal satisfaction distribution",
		},
	}, nil
}

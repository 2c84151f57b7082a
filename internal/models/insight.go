package models

// InsightType classifies a discovered pattern
type InsightType string

const (
	InsightTrend        InsightType = "trend"
	InsightAnomaly      InsightType = "anomaly"
	InsightCorrelation  InsightType = "correlation"
	InsightDistribution InsightType = "distribution"
	InsightComparison   InsightType = "comparison"
)

// Insight is one discovered pattern with scoring metadata
type Insight struct {
	Type           InsightType `json:"type"`
	Description    string      `json:"description"`
	Importance     float64     `json:"importance"` // 0-1
	Confidence     float64     `json:"confidence"` // 0-1
	RelatedColumns []string    `json:"related_columns"`
	Details        any         `json:"details"`
}

// ShiftDetails describes a before/after change (trend and anomaly insights)
type ShiftDetails struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Change float64 `json:"change"`
	Unit   string  `json:"unit,omitempty"`
}

// CorrelationDetails describes a relationship between two columns
type CorrelationDetails struct {
	Coefficient float64 `json:"coefficient"`
	Direction   string  `json:"direction"` // positive or negative
	Strength    string  `json:"strength"`  // weak, moderate, strong
}

// DistributionDetails describes the shape of a metric's distribution
type DistributionDetails struct {
	Peaks  []float64 `json:"peaks"`
	Mean   float64   `json:"mean,omitempty"`
	Median float64   `json:"median,omitempty"`
	Unit   string    `json:"unit,omitempty"`
	Shape  string    `json:"shape"` // normal, bimodal, skewed, uniform
}

// InsightFocus tells the provider which columns matter
type InsightFocus struct {
	Metrics    []string `json:"metrics"`
	Dimensions []string `json:"dimensions,omitempty"`
	TimeColumn string   `json:"time_column,omitempty"`
}

// InsightOptions tunes discovery output
type InsightOptions struct {
	MinConfidence float64       `json:"min_confidence"`
	MaxInsights   int           `json:"max_insights"`
	InsightTypes  []InsightType `json:"insight_types,omitempty"`
}

// DefaultInsightOptions mirrors the provider defaults
func DefaultInsightOptions() InsightOptions {
	return InsightOptions{MinConfidence: 0.7, MaxInsights: 5}
}

// InsightReport is the output of the discover_insights tool
type InsightReport struct {
	Insights        []Insight `json:"insights"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations,omitempty"`
}

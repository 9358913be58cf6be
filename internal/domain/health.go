package domain

// HealthCut is one row of the ordered classification table: a season whose
// peak and duration both meet the row's minimums takes its label.
type HealthCut struct {
	MinPeak     float64
	MinDuration int
	Label       string
}

// Health labels in decreasing order of vigor.
const (
	HealthExcellent = "excellent"
	HealthGood      = "good"
	HealthModerate  = "moderate"
	HealthPoor      = "poor"
)

// DefaultHealthCuts returns the standard cut table, evaluated top to bottom.
func DefaultHealthCuts() []HealthCut {
	return []HealthCut{
		{MinPeak: 0.70, MinDuration: 150, Label: HealthExcellent},
		{MinPeak: 0.55, MinDuration: 0, Label: HealthGood},
		{MinPeak: 0.40, MinDuration: 0, Label: HealthModerate},
	}
}

// ClassifyHealth returns the label of the first cut the season satisfies,
// or "poor" when none match.
func ClassifyHealth(peak float64, durationDays int, cuts []HealthCut) string {
	for _, c := range cuts {
		if peak >= c.MinPeak && durationDays >= c.MinDuration {
			return c.Label
		}
	}
	return HealthPoor
}

package domain

// PortfolioSummary aggregates the risk exposure of a set of properties.
type PortfolioSummary struct {
	PropertyCount      int     `json:"property_count"`
	EstimatedValue     int64   `json:"estimated_value"`
	TotalFinancialRisk int64   `json:"total_financial_risk"`
	RelevantRisks      int     `json:"relevant_risks"`
	HandledRisks       int     `json:"handled_risks"`
	HandledRatio       float64 `json:"handled_ratio"` // 1 when nothing is relevant
}

// Summarize totals props. Properties are assumed valid, so handled risks
// never exceed relevant risks.
func Summarize(props []Property) PortfolioSummary {
	var s PortfolioSummary
	for _, p := range props {
		s.PropertyCount++
		s.EstimatedValue += p.EstimatedValue
		s.TotalFinancialRisk += p.TotalFinancialRisk
		s.RelevantRisks += p.RelevantRisks
		s.HandledRisks += p.HandledRisks
	}
	s.HandledRatio = 1
	if s.RelevantRisks > 0 {
		s.HandledRatio = float64(s.HandledRisks) / float64(s.RelevantRisks)
	}
	return s
}

package domain

import (
	"time"
)

// Portfolio groups the properties owned or managed together.
type Portfolio struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}

// Property is a single real-estate asset placed on the map.
type Property struct {
	ID                 int64     `json:"id"`
	PortfolioID        int64     `json:"portfolio"`
	Name               string    `json:"name"`
	Address            string    `json:"address"`
	ZipCode            string    `json:"zip_code"`
	City               string    `json:"city"`
	Location           GeoPoint  `json:"location"`
	EstimatedValue     int64     `json:"estimated_value"`
	RelevantRisks      int       `json:"relevant_risks"`
	HandledRisks       int       `json:"handled_risks"`
	TotalFinancialRisk int64     `json:"total_financial_risk"`
	CreatedAt          time.Time `json:"-"`
	UpdatedAt          time.Time `json:"-"`
}

// PropertyAction names a change applied to a property.
type PropertyAction string

const (
	PropertyCreated PropertyAction = "created"
	PropertyUpdated PropertyAction = "updated"
	PropertyDeleted PropertyAction = "deleted"
)

// PropertyEvent is emitted after a property write has been persisted.
type PropertyEvent struct {
	Action     PropertyAction `json:"action"`
	Property   Property       `json:"property"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Package geojson maps properties to and from GeoJSON features.
package geojson

import (
	"time"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

const (
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
	TypePoint             = "Point"
)

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON Feature carrying a property.
type Feature struct {
	Type       string     `json:"type"`
	ID         int64      `json:"id"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry is a GeoJSON Point.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lon, lat]
}

// Properties are the non-spatial attributes of a feature.
type Properties struct {
	ID                 int64  `json:"id"`
	Portfolio          int64  `json:"portfolio"`
	Name               string `json:"name"`
	Address            string `json:"address"`
	ZipCode            string `json:"zip_code"`
	City               string `json:"city"`
	EstimatedValue     int64  `json:"estimated_value"`
	RelevantRisks      int    `json:"relevant_risks"`
	HandledRisks       int    `json:"handled_risks"`
	TotalFinancialRisk int64  `json:"total_financial_risk"`
}

// FromProperty converts a property into a Feature.
func FromProperty(p domain.Property) Feature {
	return Feature{
		Type: TypeFeature,
		ID:   p.ID,
		Geometry: Geometry{
			Type:        TypePoint,
			Coordinates: [2]float64{p.Location.Lon, p.Location.Lat},
		},
		Properties: Properties{
			ID:                 p.ID,
			Portfolio:          p.PortfolioID,
			Name:               p.Name,
			Address:            p.Address,
			ZipCode:            p.ZipCode,
			City:               p.City,
			EstimatedValue:     p.EstimatedValue,
			RelevantRisks:      p.RelevantRisks,
			HandledRisks:       p.HandledRisks,
			TotalFinancialRisk: p.TotalFinancialRisk,
		},
	}
}

// Collection converts properties into a FeatureCollection. The features
// slice is never nil so it always encodes as an array.
func Collection(props []domain.Property) FeatureCollection {
	features := make([]Feature, 0, len(props))
	for _, p := range props {
		features = append(features, FromProperty(p))
	}
	return FeatureCollection{Type: TypeFeatureCollection, Features: features}
}

// Event is the wire form of a property change published to subscribers.
type Event struct {
	Action     domain.PropertyAction `json:"action"`
	Portfolio  int64                 `json:"portfolio"`
	Feature    Feature               `json:"feature"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// FromEvent converts a domain event into its wire form.
func FromEvent(e domain.PropertyEvent) Event {
	return Event{
		Action:     e.Action,
		Portfolio:  e.Property.PortfolioID,
		Feature:    FromProperty(e.Property),
		OccurredAt: e.OccurredAt,
	}
}

package geojson

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

const (
	msgInteger = "A valid integer is required."
	msgString  = "Not a valid string."
	msgNull    = "This field may not be null."
)

type wireFeature struct {
	Type       *string                    `json:"type"`
	Geometry   json.RawMessage            `json:"geometry"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type wireGeometry struct {
	Type        string            `json:"type"`
	Coordinates []json.RawMessage `json:"coordinates"`
}

// DecodeFeature parses a Feature body into a candidate for validation.
// Malformed JSON is a structural error. Fields of the wrong JSON type are
// recorded in the candidate's DecodeErrors so they are reported together
// with the validation results.
func DecodeFeature(body []byte) (domain.PropertyCandidate, error) {
	var c domain.PropertyCandidate

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		var errs domain.ValidationErrors
		errs.AddStructural("Invalid data. Expected a Feature object.")
		return c, errs
	}

	var w wireFeature
	if err := json.Unmarshal(trimmed, &w); err != nil {
		var errs domain.ValidationErrors
		errs.AddStructural(fmt.Sprintf("JSON parse error - %v", err))
		return c, errs
	}
	if w.Type != nil && *w.Type != TypeFeature {
		var errs domain.ValidationErrors
		errs.AddStructural(fmt.Sprintf("Expected type %q, got %q.", TypeFeature, *w.Type))
		return c, errs
	}

	errs := &c.DecodeErrors
	props := w.Properties

	c.PortfolioID = decodePK(props, "portfolio", errs)
	c.Name = decodeString(props, "name", errs)
	c.Address = decodeString(props, "address", errs)
	c.ZipCode = decodeString(props, "zip_code", errs)
	c.City = decodeString(props, "city", errs)
	c.EstimatedValue = decodeInt64(props, "estimated_value", errs)
	c.TotalFinancialRisk = decodeInt64(props, "total_financial_risk", errs)
	if v := decodeInt64(props, "relevant_risks", errs); v != nil {
		n := int(*v)
		c.RelevantRisks = &n
	}
	if v := decodeInt64(props, "handled_risks", errs); v != nil {
		n := int(*v)
		c.HandledRisks = &n
	}
	c.Location = decodeGeometry(w.Geometry, errs)

	return c, nil
}

// field returns the raw value for key, or nil when absent. An explicit
// null is reported and also treated as absent.
func field(props map[string]json.RawMessage, key string, errs *domain.ValidationErrors) json.RawMessage {
	raw, ok := props[key]
	if !ok {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		errs.AddField(key, msgNull)
		return nil
	}
	return raw
}

func decodeString(props map[string]json.RawMessage, key string, errs *domain.ValidationErrors) *string {
	raw := field(props, key, errs)
	if raw == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		errs.AddField(key, msgString)
		return nil
	}
	return &s
}

// decodeInt64 accepts JSON numbers with no fractional part, including
// forms like 5.0 and 1e3.
func decodeInt64(props map[string]json.RawMessage, key string, errs *domain.ValidationErrors) *int64 {
	raw := field(props, key, errs)
	if raw == nil {
		return nil
	}
	n, ok := parseInteger(raw)
	if !ok {
		errs.AddField(key, msgInteger)
		return nil
	}
	return &n
}

func decodePK(props map[string]json.RawMessage, key string, errs *domain.ValidationErrors) *int64 {
	raw := field(props, key, errs)
	if raw == nil {
		return nil
	}
	n, ok := parseInteger(raw)
	if !ok {
		errs.AddField(key, fmt.Sprintf("Incorrect type. Expected pk value, received %s.", jsonKind(raw)))
		return nil
	}
	return &n
}

func parseInteger(raw json.RawMessage) (int64, bool) {
	text := string(bytes.TrimSpace(raw))
	if text == "" || (text[0] != '-' && (text[0] < '0' || text[0] > '9')) {
		return 0, false
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func jsonKind(raw json.RawMessage) string {
	switch b := bytes.TrimSpace(raw); {
	case len(b) == 0:
		return "nothing"
	case b[0] == '"':
		return "str"
	case b[0] == 't' || b[0] == 'f':
		return "bool"
	case b[0] == '{':
		return "dict"
	case b[0] == '[':
		return "list"
	default:
		return "float"
	}
}

func decodeGeometry(raw json.RawMessage, errs *domain.ValidationErrors) *domain.GeoPoint {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var g wireGeometry
	if err := json.Unmarshal(b, &g); err != nil {
		errs.AddField(domain.LocationKey, "Invalid format: geometry must be a GeoJSON object.")
		return nil
	}
	if g.Type != TypePoint {
		errs.AddField(domain.LocationKey, fmt.Sprintf("Geometry type must be Point, got %q.", g.Type))
		return nil
	}
	if len(g.Coordinates) != 2 {
		errs.AddField(domain.LocationKey, "Point coordinates must be [longitude, latitude].")
		return nil
	}

	var lon, lat float64
	if json.Unmarshal(g.Coordinates[0], &lon) != nil || json.Unmarshal(g.Coordinates[1], &lat) != nil {
		errs.AddField(domain.LocationKey, "Point coordinates must be numbers.")
		return nil
	}
	return &domain.GeoPoint{Lat: lat, Lon: lon}
}

type wireCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// RawFeatures splits a FeatureCollection body into its undecoded features.
func RawFeatures(body []byte) ([]json.RawMessage, error) {
	var w wireCollection
	if err := json.Unmarshal(body, &w); err != nil {
		var errs domain.ValidationErrors
		errs.AddStructural(fmt.Sprintf("JSON parse error - %v", err))
		return nil, errs
	}
	if w.Type != TypeFeatureCollection {
		var errs domain.ValidationErrors
		errs.AddStructural(fmt.Sprintf("Expected type %q, got %q.", TypeFeatureCollection, w.Type))
		return nil, errs
	}
	if w.Features == nil {
		return []json.RawMessage{}, nil
	}
	return w.Features, nil
}

// DecodeCollection parses a FeatureCollection into one candidate per feature.
// A feature that is itself malformed yields a candidate whose DecodeErrors
// hold the structural error, so indexes stay aligned with the input.
func DecodeCollection(body []byte) ([]domain.PropertyCandidate, error) {
	features, err := RawFeatures(body)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PropertyCandidate, 0, len(features))
	for _, raw := range features {
		c, err := DecodeFeature(raw)
		if err != nil {
			if ve, ok := domain.AsValidationErrors(err); ok {
				c.DecodeErrors = append(c.DecodeErrors, ve...)
			} else {
				return nil, err
			}
		}
		out = append(out, c)
	}
	return out, nil
}

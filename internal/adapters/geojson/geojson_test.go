package geojson_test

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geoportfolio/internal/adapters/geojson"
	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

func osloProperty() domain.Property {
	return domain.Property{
		ID:                 12,
		PortfolioID:        3,
		Name:               "Storgata 1",
		Address:            "Storgata 1",
		ZipCode:            "0155",
		City:               "Oslo",
		Location:           domain.GeoPoint{Lat: 59.9139, Lon: 10.7522},
		EstimatedValue:     15_000_000,
		RelevantRisks:      5,
		HandledRisks:       3,
		TotalFinancialRisk: 250_000,
	}
}

func TestFromProperty_Shape(t *testing.T) {
	data, err := json.Marshal(geojson.FromProperty(osloProperty()))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "Feature", got["type"])
	geom := got["geometry"].(map[string]any)
	assert.Equal(t, "Point", geom["type"])
	assert.Equal(t, []any{10.7522, 59.9139}, geom["coordinates"])

	props := got["properties"].(map[string]any)
	assert.EqualValues(t, 12, props["id"])
	assert.EqualValues(t, 3, props["portfolio"])
	assert.Equal(t, "0155", props["zip_code"])
	assert.NotContains(t, props, "location")
}

func TestCollection_EmptyIsArray(t *testing.T) {
	data, err := json.Marshal(geojson.Collection(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}

func TestRoundTrip(t *testing.T) {
	want := osloProperty()
	data, err := json.Marshal(geojson.FromProperty(want))
	require.NoError(t, err)

	c, err := geojson.DecodeFeature(data)
	require.NoError(t, err)
	require.Empty(t, c.DecodeErrors)

	got, err := domain.ValidateProperty(c, domain.DefaultRules())
	require.NoError(t, err)

	want.ID = 0 // server assigned
	assert.Equal(t, want, got)
}

func TestDecodeFeature_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"empty":     ``,
		"array":     `[1,2]`,
		"truncated": `{"type":"Feature",`,
		"wrongType": `{"type":"FeatureCollection","features":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := geojson.DecodeFeature([]byte(body))
			ve, ok := domain.AsValidationErrors(err)
			require.True(t, ok, "want ValidationErrors, got %v", err)
			assert.True(t, ve.Has(domain.NonFieldErrorsKey))
		})
	}
}

func TestDecodeFeature_TypeErrors(t *testing.T) {
	body := `{
		"type": "Feature",
		"geometry": {"type": "Point", "coordinates": [10.75, 59.91]},
		"properties": {
			"portfolio": "one",
			"name": 42,
			"estimated_value": 12.5,
			"relevant_risks": "five",
			"handled_risks": 2.0,
			"total_financial_risk": null
		}
	}`
	c, err := geojson.DecodeFeature([]byte(body))
	require.NoError(t, err)

	byKey := c.DecodeErrors.ByKey()
	assert.Equal(t, []string{"Incorrect type. Expected pk value, received str."}, byKey["portfolio"])
	assert.Equal(t, []string{"Not a valid string."}, byKey["name"])
	assert.Equal(t, []string{"A valid integer is required."}, byKey["estimated_value"])
	assert.Equal(t, []string{"A valid integer is required."}, byKey["relevant_risks"])
	assert.Equal(t, []string{"This field may not be null."}, byKey["total_financial_risk"])
	assert.NotContains(t, byKey, "handled_risks")

	require.NotNil(t, c.HandledRisks)
	assert.Equal(t, 2, *c.HandledRisks)
	require.NotNil(t, c.Location)
	assert.Equal(t, domain.GeoPoint{Lat: 59.91, Lon: 10.75}, *c.Location)

	// decode errors flow through validation alongside the rule failures
	_, err = domain.ValidateProperty(c, domain.DefaultRules())
	ve, ok := domain.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, ve.Has("portfolio"))
	assert.True(t, ve.Has("address"))
	assert.Len(t, ve.ByKey()["estimated_value"], 1)
}

func TestDecodeFeature_Geometry(t *testing.T) {
	tests := []struct {
		name     string
		geometry string
		errors   bool
		nilPoint bool
	}{
		{"missing", `null`, false, true},
		{"polygon", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`, true, true},
		{"three coords", `{"type":"Point","coordinates":[1,2,3]}`, true, true},
		{"string coords", `{"type":"Point","coordinates":["1","2"]}`, true, true},
		{"not object", `"POINT(1 2)"`, true, true},
		{"ok", `{"type":"Point","coordinates":[-2.935,43.263]}`, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := geojson.DecodeFeature([]byte(`{"type":"Feature","geometry":` + tt.geometry + `,"properties":{}}`))
			require.NoError(t, err)
			assert.Equal(t, tt.errors, c.DecodeErrors.Has(domain.LocationKey))
			assert.Equal(t, tt.nilPoint, c.Location == nil)
		})
	}
}

func TestFromEvent(t *testing.T) {
	e := geojson.FromEvent(domain.PropertyEvent{Action: domain.PropertyUpdated, Property: osloProperty()})
	assert.Equal(t, domain.PropertyUpdated, e.Action)
	assert.Equal(t, int64(3), e.Portfolio)
	assert.Equal(t, int64(12), e.Feature.ID)
}

func TestDecodeCollection(t *testing.T) {
	good, err := json.Marshal(geojson.FromProperty(osloProperty()))
	require.NoError(t, err)
	body := `{"type":"FeatureCollection","features":[` + string(good) + `,"oops"]}`

	cands, err := geojson.DecodeCollection([]byte(body))
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Empty(t, cands[0].DecodeErrors)
	assert.True(t, cands[1].DecodeErrors.Has(domain.NonFieldErrorsKey))

	_, err = domain.ValidateProperty(cands[1], domain.DefaultRules())
	ve, ok := domain.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, ve.Has(domain.NonFieldErrorsKey))
}

func TestDecodeCollection_WrongType(t *testing.T) {
	_, err := geojson.DecodeCollection([]byte(`{"type":"Feature"}`))
	_, ok := domain.AsValidationErrors(err)
	assert.True(t, ok)
}

func TestRawFeatures(t *testing.T) {
	features, err := geojson.RawFeatures([]byte(`{"type":"FeatureCollection","features":[{"a":1},{"b":2}]}`))
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.JSONEq(t, `{"b":2}`, string(features[1]))

	features, err = geojson.RawFeatures([]byte(`{"type":"FeatureCollection"}`))
	require.NoError(t, err)
	assert.NotNil(t, features)
	assert.Empty(t, features)
}

package http_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

// loadDocument walks up from the package directory to api/openapi.yaml and
// returns it parsed and validated.
func loadDocument(t *testing.T) *openapi3.T {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)

	for range 5 {
		path := filepath.Join(dir, "api", "openapi.yaml")
		if data, err := os.ReadFile(path); err == nil {
			doc, err := (&openapi3.Loader{}).LoadFromData(data)
			require.NoError(t, err, "parse %s", path)
			require.NoError(t, doc.Validate(context.Background()), "validate %s", path)
			return doc
		}
		dir = filepath.Dir(dir)
	}
	t.Fatal("api/openapi.yaml not found")
	return nil
}

func TestOpenAPI_Info(t *testing.T) {
	doc := loadDocument(t)
	assert.Equal(t, "GeoPortfolio API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotEmpty(t, doc.Info.Description)
	assert.NotEmpty(t, doc.Servers)

	for _, name := range []string{
		"Point", "PropertyAttributes", "FeatureInput", "Feature", "FeatureCollection",
		"PortfolioInput", "Portfolio", "Pagination", "PropertyEvent", "APIError",
	} {
		assert.Contains(t, doc.Components.Schemas, name)
	}
}

// documentedPath maps a fiber route to its documented form:
// /api/properties/:id becomes /api/properties/{id}/.
func documentedPath(route string) string {
	parts := strings.Split(route, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			parts[i] = "{" + p[1:] + "}"
		}
	}
	path := strings.Join(parts, "/")
	if strings.HasPrefix(path, "/api/") && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

// TestOpenAPI_CoversRoutes fails when a public route is registered without
// being documented.
func TestOpenAPI_CoversRoutes(t *testing.T) {
	doc := loadDocument(t)
	app := setupApp(makeDeps())

	public := func(path string) bool {
		return strings.HasPrefix(path, "/api/") || path == "/graphql" || path == "/health" || path == "/ready"
	}

	checked := 0
	for _, r := range app.GetRoutes(true) {
		if r.Method == fiber.MethodHead || !public(r.Path) {
			continue
		}
		path := documentedPath(r.Path)
		item := doc.Paths.Find(path)
		if !assert.NotNil(t, item, "route %s %s is not documented", r.Method, path) {
			continue
		}
		assert.NotNil(t, item.GetOperation(r.Method), "%s %s has no documented operation", r.Method, path)
		checked++
	}
	assert.GreaterOrEqual(t, checked, 14)
}

func TestOpenAPI_PropertyLimitsMatchValidation(t *testing.T) {
	attrs := loadDocument(t).Components.Schemas["PropertyAttributes"].Value

	value := attrs.Properties["estimated_value"].Value
	require.NotNil(t, value.Max)
	assert.Equal(t, float64(domain.DefaultEstimatedValueCeiling), *value.Max)
	assert.Equal(t, "^[0-9]{4}$", attrs.Properties["zip_code"].Value.Pattern)
	assert.Len(t, attrs.Required, 9)
}

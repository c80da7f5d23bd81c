package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

// graphQLResolvers answers read-only queries from the same services the
// REST handlers use, so caching and filtering behave identically.
type graphQLResolvers struct {
	deps *Dependencies
}

func sourcePortfolioID(source any) (int64, error) {
	switch p := source.(type) {
	case domain.Portfolio:
		return p.ID, nil
	case *domain.Portfolio:
		return p.ID, nil
	}
	return 0, fmt.Errorf("unexpected portfolio source %T", source)
}

// propertyFilter reads the optional portfolio and bbox arguments.
func propertyFilter(args map[string]any) (domain.PropertyFilter, error) {
	var f domain.PropertyFilter
	if id, ok := args["portfolio"].(int); ok {
		pid := int64(id)
		f.PortfolioID = &pid
	}
	if raw, ok := args["bbox"].(string); ok && raw != "" {
		bbox, err := domain.ParseBBox(raw)
		if err != nil {
			return f, err
		}
		f.BBox = bbox
	}
	return f, nil
}

func (r graphQLResolvers) properties(p graphql.ResolveParams) (any, error) {
	f, err := propertyFilter(p.Args)
	if err != nil {
		return nil, err
	}
	return r.deps.Properties.List(p.Context, f)
}

func (r graphQLResolvers) property(p graphql.ResolveParams) (any, error) {
	return r.deps.Properties.GetByID(p.Context, int64(p.Args["id"].(int)))
}

func (r graphQLResolvers) portfolios(p graphql.ResolveParams) (any, error) {
	return r.deps.Portfolios.List(p.Context)
}

func (r graphQLResolvers) portfolio(p graphql.ResolveParams) (any, error) {
	return r.deps.Portfolios.GetByID(p.Context, int64(p.Args["id"].(int)))
}

// portfolioProperties lists the properties of the parent portfolio, still
// honouring a bbox argument.
func (r graphQLResolvers) portfolioProperties(p graphql.ResolveParams) (any, error) {
	id, err := sourcePortfolioID(p.Source)
	if err != nil {
		return nil, err
	}
	f, err := propertyFilter(p.Args)
	if err != nil {
		return nil, err
	}
	f.PortfolioID = &id
	return r.deps.Properties.List(p.Context, f)
}

func (r graphQLResolvers) portfolioSummary(p graphql.ResolveParams) (any, error) {
	id, err := sourcePortfolioID(p.Source)
	if err != nil {
		return nil, err
	}
	props, err := r.deps.Properties.List(p.Context, domain.PropertyFilter{PortfolioID: &id})
	if err != nil {
		return nil, err
	}
	return domain.Summarize(props), nil
}

// buildSchema assembles the read-only GraphQL schema. Monetary amounts are
// exposed as Float because they exceed the 32-bit GraphQL Int.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	r := graphQLResolvers{deps: deps}

	bboxArg := &graphql.ArgumentConfig{
		Type:        graphql.String,
		Description: "minLon,minLat,maxLon,maxLat",
	}
	idArgs := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
	}

	point := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lon": &graphql.Field{Type: graphql.Float},
			"lat": &graphql.Field{Type: graphql.Float},
		},
	})

	property := graphql.NewObject(graphql.ObjectConfig{
		Name: "Property",
		Fields: graphql.Fields{
			"id":                   &graphql.Field{Type: graphql.Int},
			"portfolio":            &graphql.Field{Type: graphql.Int},
			"name":                 &graphql.Field{Type: graphql.String},
			"address":              &graphql.Field{Type: graphql.String},
			"zip_code":             &graphql.Field{Type: graphql.String},
			"city":                 &graphql.Field{Type: graphql.String},
			"location":             &graphql.Field{Type: point},
			"estimated_value":      &graphql.Field{Type: graphql.Float},
			"relevant_risks":       &graphql.Field{Type: graphql.Int},
			"handled_risks":        &graphql.Field{Type: graphql.Int},
			"total_financial_risk": &graphql.Field{Type: graphql.Float},
		},
	})

	summary := graphql.NewObject(graphql.ObjectConfig{
		Name: "PortfolioSummary",
		Fields: graphql.Fields{
			"property_count":       &graphql.Field{Type: graphql.Int},
			"estimated_value":      &graphql.Field{Type: graphql.Float},
			"total_financial_risk": &graphql.Field{Type: graphql.Float},
			"relevant_risks":       &graphql.Field{Type: graphql.Int},
			"handled_risks":        &graphql.Field{Type: graphql.Int},
			"handled_ratio":        &graphql.Field{Type: graphql.Float},
		},
	})

	portfolio := graphql.NewObject(graphql.ObjectConfig{
		Name: "Portfolio",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.Int},
			"name": &graphql.Field{Type: graphql.String},
			"properties": &graphql.Field{
				Type:    graphql.NewList(property),
				Args:    graphql.FieldConfigArgument{"bbox": bboxArg},
				Resolve: r.portfolioProperties,
			},
			"summary": &graphql.Field{
				Type:    summary,
				Resolve: r.portfolioSummary,
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"portfolios": &graphql.Field{
				Type:    graphql.NewList(portfolio),
				Resolve: r.portfolios,
			},
			"portfolio": &graphql.Field{
				Type:    portfolio,
				Args:    idArgs,
				Resolve: r.portfolio,
			},
			"properties": &graphql.Field{
				Type: graphql.NewList(property),
				Args: graphql.FieldConfigArgument{
					"portfolio": &graphql.ArgumentConfig{Type: graphql.Int},
					"bbox":      bboxArg,
				},
				Resolve: r.properties,
			},
			"property": &graphql.Field{
				Type:    property,
				Args:    idArgs,
				Resolve: r.property,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// GraphQLHandler serves POST /graphql. Query errors are reported in the
// result body with status 200, as GraphQL clients expect.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema: " + err.Error())
	}

	return func(c *fiber.Ctx) error {
		var req graphQLRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		return c.JSON(graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		}))
	}
}

package http

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoportfolio/internal/adapters/geojson"
	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

// decodePortfolioName extracts the name from a {"name": ...} body.
func decodePortfolioName(body []byte) (*string, error) {
	var errs domain.ValidationErrors

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		errs.AddStructural(fmt.Sprintf("JSON parse error - %v", err))
		return nil, errs
	}

	field, ok := raw["name"]
	if !ok {
		return nil, nil
	}
	if bytes.Equal(bytes.TrimSpace(field), []byte("null")) {
		errs.AddField("name", "This field may not be null.")
		return nil, errs
	}
	var name string
	if err := json.Unmarshal(field, &name); err != nil {
		errs.AddField("name", "Not a valid string.")
		return nil, errs
	}
	return &name, nil
}

// ListPortfoliosHandler returns all portfolios as a flat array. offset and
// limit select a page and add Link headers.
func ListPortfoliosHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		portfolios, err := deps.Portfolios.List(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		if portfolios == nil {
			portfolios = []domain.Portfolio{}
		}

		if pg, ok := parsePagination(c); ok {
			portfolios = paginate(portfolios, &pg)
			SetLinkHeaders(c, pg)
		}
		return c.JSON(portfolios)
	}
}

// CreatePortfolioHandler stores a new portfolio.
func CreatePortfolioHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := decodePortfolioName(c.Body())
		if err != nil {
			return writeError(c, err)
		}

		p, err := deps.Portfolios.Create(c.UserContext(), name)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GetPortfolioHandler returns a single portfolio.
func GetPortfolioHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := pathID(c)
		if !ok {
			return err
		}

		p, err := deps.Portfolios.GetByID(c.UserContext(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(p)
	}
}

// UpdatePortfolioHandler renames a portfolio.
func UpdatePortfolioHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := pathID(c)
		if !ok {
			return err
		}

		name, err := decodePortfolioName(c.Body())
		if err != nil {
			return writeError(c, err)
		}

		p, err := deps.Portfolios.Update(c.UserContext(), id, name)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(p)
	}
}

// DeletePortfolioHandler removes a portfolio together with its properties.
func DeletePortfolioHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := pathID(c)
		if !ok {
			return err
		}

		if err := deps.Portfolios.Delete(c.UserContext(), id); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PortfolioPropertiesHandler returns the FeatureCollection of one portfolio,
// optionally narrowed by ?in_bbox.
func PortfolioPropertiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := pathID(c)
		if !ok {
			return err
		}

		if _, err := deps.Portfolios.GetByID(c.UserContext(), id); err != nil {
			return writeError(c, err)
		}

		filter, err := domain.ParsePropertyFilter("", c.Query("in_bbox"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		filter.PortfolioID = &id

		props, err := deps.Properties.List(c.UserContext(), filter)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(geojson.Collection(props))
	}
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoportfolio/internal/adapters/geojson"
	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

// pathID parses the :id route parameter. ok is false, and a 404 has been
// written, when the segment is not a positive integer.
func pathID(c *fiber.Ctx) (id int64, ok bool, err error) {
	id, perr := domain.ParseID(c.Params("id"))
	if perr != nil {
		return 0, false, errNotFound(c, "not found")
	}
	return id, true, nil
}

// ListPropertiesHandler returns properties as a FeatureCollection, filtered by
// ?portfolio=<id> and ?in_bbox=minLon,minLat,maxLon,maxLat.
func ListPropertiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := domain.ParsePropertyFilter(c.Query("portfolio"), c.Query("in_bbox"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		props, err := deps.Properties.List(c.UserContext(), filter)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(geojson.Collection(props))
	}
}

// CreatePropertyHandler validates a Feature body and stores it.
func CreatePropertyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		candidate, err := geojson.DecodeFeature(c.Body())
		if err != nil {
			return writeError(c, err)
		}

		p, err := deps.Properties.Create(c.UserContext(), candidate)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(geojson.FromProperty(*p))
	}
}

// GetPropertyHandler returns a single property as a Feature.
func GetPropertyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := pathID(c)
		if !ok {
			return err
		}

		p, err := deps.Properties.GetByID(c.UserContext(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(geojson.FromProperty(*p))
	}
}

// UpdatePropertyHandler replaces a property with a full Feature body.
func UpdatePropertyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := pathID(c)
		if !ok {
			return err
		}

		candidate, err := geojson.DecodeFeature(c.Body())
		if err != nil {
			return writeError(c, err)
		}

		p, err := deps.Properties.Update(c.UserContext(), id, candidate)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(geojson.FromProperty(*p))
	}
}

// DeletePropertyHandler removes a property.
func DeletePropertyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := pathID(c)
		if !ok {
			return err
		}

		if err := deps.Properties.Delete(c.UserContext(), id); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

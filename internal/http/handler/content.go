package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"studioapi/internal/service"
)

// Registrar mounts one resource's routes. Writes are wrapped in guard.
type Registrar interface {
	Register(r fiber.Router, guard fiber.Handler)
}

type contentRoutes[T any] struct {
	svc service.Content[T]
}

// ContentRoutes exposes a content service as /<kind> and /<kind>/:id.
func ContentRoutes[T any](svc service.Content[T]) Registrar {
	return contentRoutes[T]{svc: svc}
}

func (cr contentRoutes[T]) Register(r fiber.Router, guard fiber.Handler) {
	base := "/" + cr.svc.Kind()
	r.Get(base, ListContent(cr.svc))
	r.Post(base, guard, CreateContent(cr.svc))
	r.Get(base+"/:id", GetContent(cr.svc))
	r.Put(base+"/:id", guard, UpdateContent(cr.svc))
	r.Patch(base+"/:id", guard, PatchContent(cr.svc))
	r.Delete(base+"/:id", guard, DeleteContent(cr.svc))
}

// reserved query keys that are not filters.
var listKeys = map[string]struct{}{"limit": {}, "offset": {}, "sort": {}}

// queryError is a malformed list query parameter.
type queryError struct {
	code    string
	message string
}

func (e *queryError) Error() string { return e.message }

// listParams reads limit, offset and sort; every other query key is a filter.
func listParams(c *fiber.Ctx) (service.ListParams, *queryError) {
	var p service.ListParams
	var err error
	if p.Limit, err = strconv.Atoi(c.Query("limit", "0")); err != nil || p.Limit < 0 {
		return p, &queryError{"INVALID_LIMIT", "limit must be a non-negative integer"}
	}
	if p.Offset, err = strconv.Atoi(c.Query("offset", "0")); err != nil || p.Offset < 0 {
		return p, &queryError{"INVALID_OFFSET", "offset must be a non-negative integer"}
	}
	p.Sort = c.Query("sort")
	for k, v := range c.Queries() {
		if _, ok := listKeys[k]; ok {
			continue
		}
		if p.Filter == nil {
			p.Filter = map[string]string{}
		}
		p.Filter[k] = v
	}
	return p, nil
}

// paramID validates the :id path segment.
func paramID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
}

func invalidBody(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "request body must be a JSON object")
}

// ListContent lists records with limit, offset, sort and filters.
func ListContent[T any](svc service.Content[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, qerr := listParams(c)
		if qerr != nil {
			return writeError(c, fiber.StatusBadRequest, qerr.code, qerr.message)
		}
		res, err := svc.List(c.UserContext(), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

// GetContent returns one record.
func GetContent[T any](svc service.Content[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return invalidID(c)
		}
		item, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(item)
	}
}

// CreateContent creates a record from a JSON body.
func CreateContent[T any](svc service.Content[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item := new(T)
		if err := c.BodyParser(item); err != nil {
			return invalidBody(c)
		}
		created, err := svc.Create(c.UserContext(), item)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// UpdateContent fully replaces a record.
func UpdateContent[T any](svc service.Content[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return invalidID(c)
		}
		item := new(T)
		if err := c.BodyParser(item); err != nil {
			return invalidBody(c)
		}
		updated, err := svc.Update(c.UserContext(), id, item)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(updated)
	}
}

// PatchContent merges a JSON object onto a record.
func PatchContent[T any](svc service.Content[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return invalidID(c)
		}
		updated, err := svc.Patch(c.UserContext(), id, c.Body())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(updated)
	}
}

// DeleteContent removes a record and its media.
func DeleteContent[T any](svc service.Content[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return invalidID(c)
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

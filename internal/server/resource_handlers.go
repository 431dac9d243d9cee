package server

import (
	"reliefhub/internal/models"
	"reliefhub/internal/repository"
	"reliefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetResources handles GET /api/resources
// @Summary List resources
// @Description Browse resources with optional type/status/provider filters
// @Tags resources
// @Produce json
// @Param type query string false "Resource type filter"
// @Param status query string false "Resource status filter"
// @Success 200 {array} models.Resource
// @Router /resources [get]
func (s *Server) GetResources(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	filter := repository.ResourceFilter{
		Type:       models.ResourceType(c.Query("type")),
		Status:     models.ResourceStatus(c.Query("status")),
		ProviderID: uint(c.QueryInt("provider_id", 0)),
	}
	resources, err := s.resourceService.ListResources(c.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resources)
}

// GetResource handles GET /api/resources/:id
func (s *Server) GetResource(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	resource, err := s.resourceService.GetResource(c.Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resource)
}

// CreateResource handles POST /api/resources
// @Summary Offer a resource
// @Tags resources
// @Accept json
// @Produce json
// @Success 201 {object} models.Resource
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /resources [post]
func (s *Server) CreateResource(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}

	var req struct {
		Title       string              `json:"title"`
		Description string              `json:"description"`
		Type        models.ResourceType `json:"type"`
		Quantity    int                 `json:"quantity"`
		Location    models.Location     `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	resource, err := s.resourceService.CreateResource(c.Context(), service.CreateResourceInput{
		Actor:       actor,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Location:    req.Location,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resource)
}

// UpdateResource handles PUT /api/resources/:id. Descriptive fields,
// quantity, and manual status are all edited through this endpoint; quantity
// and status go through the ledger rules.
func (s *Server) UpdateResource(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       string                 `json:"title"`
		Description string                 `json:"description"`
		Location    *models.Location       `json:"location"`
		Quantity    *int                   `json:"quantity"`
		Status      *models.ResourceStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	resource, err := s.resourceService.UpdateResource(c.Context(), service.UpdateResourceInput{
		Actor:       actor,
		ResourceID:  id,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	if req.Quantity != nil {
		resource, err = s.resourceService.SetQuantity(c.Context(), service.SetQuantityInput{
			Actor:      actor,
			ResourceID: id,
			Quantity:   *req.Quantity,
		})
		if err != nil {
			return mapServiceError(c, err)
		}
	}

	if req.Status != nil {
		resource, err = s.resourceService.SetStatusOverride(c.Context(), service.SetStatusOverrideInput{
			Actor:      actor,
			ResourceID: id,
			Status:     *req.Status,
		})
		if err != nil {
			return mapServiceError(c, err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(resource)
}

// DeleteResource handles DELETE /api/resources/:id
func (s *Server) DeleteResource(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.resourceService.DeleteResource(c.Context(), actor, id); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

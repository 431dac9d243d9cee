package server

import (
	"reliefhub/internal/models"
	"reliefhub/internal/repository"
	"reliefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetRequests handles GET /api/requests
// @Summary List relief requests
// @Description Victims see their own requests, volunteers the requests against their resources, admins everything
// @Tags requests
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {array} models.Request
// @Router /requests [get]
func (s *Server) GetRequests(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}

	p := parsePagination(c, 20)
	requests, err := s.requestService.ListRequests(c.Context(), service.ListRequestsInput{
		Actor: actor,
		Filter: repository.RequestFilter{
			Status:     models.RequestStatus(c.Query("status")),
			Priority:   models.RequestPriority(c.Query("priority")),
			ResourceID: uint(c.QueryInt("resource_id", 0)),
		},
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(requests)
}

// GetRequest handles GET /api/requests/:id
func (s *Server) GetRequest(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	request, err := s.requestService.GetRequest(c.Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	if !actor.IsAdmin() && actor.ID != request.UserID &&
		(request.Resource == nil || actor.ID != request.Resource.ProviderID) {
		return mapServiceError(c, models.NewForbiddenError("Not allowed to view this request"))
	}
	return c.Status(fiber.StatusOK).JSON(request)
}

// CreateRequest handles POST /api/requests
// @Summary File a relief request
// @Tags requests
// @Accept json
// @Produce json
// @Success 201 {object} models.Request
// @Failure 400 {object} object{error=string}
// @Router /requests [post]
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}

	var req struct {
		UserID     uint                   `json:"user_id"`
		ResourceID uint                   `json:"resource_id"`
		Quantity   int                    `json:"quantity_requested"`
		Priority   models.RequestPriority `json:"priority"`
		Message    string                 `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.requestService.CreateRequest(c.Context(), service.CreateRequestInput{
		Actor:      actor,
		UserID:     req.UserID,
		ResourceID: req.ResourceID,
		Quantity:   req.Quantity,
		Priority:   req.Priority,
		Message:    req.Message,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

// UpdateRequest handles PUT /api/requests/:id. The status field drives the
// lifecycle state machine; this endpoint is the only way a request changes
// status.
// @Summary Transition a relief request
// @Tags requests
// @Accept json
// @Produce json
// @Success 200 {object} models.Request
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /requests/{id} [put]
func (s *Server) UpdateRequest(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status     models.RequestStatus `json:"status"`
		AdminNotes string               `json:"admin_notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Status == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Status is required"))
	}

	request, err := s.requestService.UpdateStatus(c.Context(), service.UpdateRequestStatusInput{
		Actor:      actor,
		RequestID:  id,
		NewStatus:  req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(request)
}

// DeleteRequest handles DELETE /api/requests/:id
func (s *Server) DeleteRequest(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.requestService.DeleteRequest(c.Context(), actor, id); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

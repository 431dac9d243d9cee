package server

import (
	"reliefhub/internal/models"
	"reliefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Name         string           `json:"name"`
	Phone        string           `json:"phone"`
	Location     *models.Location `json:"location"`
	Organization string           `json:"organization"`
	Skills       []string         `json:"skills"`
	Availability *bool            `json:"availability"`
}

// GetMyProfile handles GET /api/users/me
// @Summary Get own profile
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} object{error=string}
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	user, err := s.userService.GetUserByID(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} models.User
// @Failure 400 {object} object{error=string}
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	return s.updateProfile(c, userID)
}

// UpdateUserProfile handles PUT /api/users/:id (admin only)
func (s *Server) UpdateUserProfile(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if !actor.IsAdmin() && actor.ID != id {
		return mapServiceError(c, models.NewForbiddenError("Only the account owner or an admin can update this profile"))
	}
	return s.updateProfile(c, id)
}

func (s *Server) updateProfile(c *fiber.Ctx, userID uint) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:       userID,
		Name:         req.Name,
		Phone:        req.Phone,
		Location:     req.Location,
		Organization: req.Organization,
		Skills:       req.Skills,
		Availability: req.Availability,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// GetAllUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Router /users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}
	if !actor.IsAdmin() {
		return mapServiceError(c, models.NewForbiddenError("Admin access required"))
	}

	p := parsePagination(c, 20)
	users, err := s.userService.ListUsers(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUserByID(c.Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// DeleteUser handles DELETE /api/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	actor, err := s.requireActor(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.DeleteUser(c.Context(), actor, id); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetVolunteers handles GET /api/volunteers
// @Summary List volunteers with their approved request counts
// @Tags volunteers
// @Produce json
// @Success 200 {array} models.VolunteerProfile
// @Router /volunteers [get]
func (s *Server) GetVolunteers(c *fiber.Ctx) error {
	volunteers, err := s.volunteerService.ListVolunteers(c.Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(volunteers)
}

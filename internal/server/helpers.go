package server

import (
	"errors"
	"strings"
	"unicode"

	"reliefhub/internal/models"
	"reliefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// mapServiceError writes the HTTP response for a service-layer error,
// translating the error taxonomy to status codes: not found 404, validation
// and invalid transitions 400, conflicts and exhausted stock 409,
// authorization failures 401/403, everything else 500.
func mapServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	status := fiber.StatusInternalServerError
	switch appErr.Code {
	case models.CodeNotFound:
		status = fiber.StatusNotFound
	case models.CodeValidation, models.CodeInvalidTransition:
		status = fiber.StatusBadRequest
	case models.CodeInsufficientAvail, models.CodeConflict:
		status = fiber.StatusConflict
	case models.CodeUnauthorized:
		status = fiber.StatusUnauthorized
	case models.CodeForbidden:
		status = fiber.StatusForbidden
	}
	return models.RespondWithError(c, status, appErr)
}

// actorFromCtx resolves the authenticated user into a service actor. The
// user lookup is cache-backed, so this does not cost a DB round trip on the
// hot path.
func (s *Server) actorFromCtx(c *fiber.Ctx) (service.Actor, error) {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		return service.Actor{}, models.NewUnauthorizedError("Authorization required")
	}
	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{ID: user.ID, Role: user.Role}, nil
}

// requireActor resolves the actor or writes the error response. Callers
// should return nil when the second result is errResponseWritten.
func (s *Server) requireActor(c *fiber.Ctx) (service.Actor, error) {
	actor, err := s.actorFromCtx(c)
	if err != nil {
		_ = mapServiceError(c, err)
		return service.Actor{}, errResponseWritten
	}
	return actor, nil
}

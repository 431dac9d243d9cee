package server

import (
	"net/http"
	"testing"

	"reliefhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	t.Run("creates a victim account and returns a token", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"name":     "Asha Verma",
			"email":    "asha@example.org",
			"password": "Sup3r-secret-pw!",
			"phone":    "9876543210",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decodeJSON(t, resp, &body)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, models.RoleVictim, body.User.Role)
		assert.Equal(t, "asha@example.org", body.User.Email)
		assert.Empty(t, body.User.Password)

		// The token is immediately usable.
		me := env.doJSON(t, http.MethodGet, "/api/users/me", body.Token, nil)
		assert.Equal(t, http.StatusOK, me.StatusCode)
	})

	t.Run("accepts an explicit volunteer role", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"name":     "Ravi Kumar",
			"email":    "ravi@example.org",
			"password": "Sup3r-secret-pw!",
			"role":     "volunteer",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body struct {
			User models.User `json:"user"`
		}
		decodeJSON(t, resp, &body)
		assert.Equal(t, models.RoleVolunteer, body.User.Role)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"name":     "Nobody",
			"email":    "nobody@example.org",
			"password": "Sup3r-secret-pw!",
			"role":     "superuser",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"name":     "Asha Again",
			"email":    "asha@example.org",
			"password": "Sup3r-secret-pw!",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("rejects a weak password", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"name":     "Weak Password",
			"email":    "weak@example.org",
			"password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "login-user", models.RoleVictim, "")

	t.Run("returns a token for valid credentials", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    user.Email,
			"password": "Sup3r-secret-pw!",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decodeJSON(t, resp, &body)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, user.ID, body.User.ID)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    user.Email,
			"password": "Wrong-passw0rd!!",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects an unknown email", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    "ghost@example.org",
			"password": "Sup3r-secret-pw!",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuthRequired_RejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, "/api/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, "/api/users/me", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := newTestEnv(t)
		other.server.config.JWTSecret = "a-completely-different-32-char-key!!"
		user := other.seedUser(t, "foreign", models.RoleVictim, "")
		foreign := other.token(t, user)

		resp := env.doJSON(t, http.MethodGet, "/api/users/me", foreign, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

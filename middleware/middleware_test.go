package middleware_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studysync/config"
	"studysync/middleware"
	"studysync/models"
	"studysync/services"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		services.ErrInvalidSignature:                          fiber.StatusBadRequest,
		services.ErrAmountMismatch:                            fiber.StatusBadRequest,
		services.Invalid("bad %s", "input"):                   fiber.StatusBadRequest,
		errors.Wrap(services.ErrNotEligible, "progress"):      fiber.StatusBadRequest,
		services.ErrAlreadyProcessed:                          fiber.StatusConflict,
		services.ErrAlreadyCompleted:                          fiber.StatusConflict,
		services.ErrNotCurrentLecture:                         fiber.StatusConflict,
		errors.Wrap(services.ErrUnauthorized, "not yours"):    fiber.StatusForbidden,
		errors.Wrap(services.ErrNotFound, "course"):           fiber.StatusNotFound,
		errors.Wrap(services.ErrTransactionFailed, "db down"): fiber.StatusInternalServerError,
		errors.New("boom"):                                    fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, middleware.StatusFor(err), err.Error())
	}
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	type req struct {
		Title string `json:"title" validate:"required"`
		Limit int    `json:"limit" validate:"max=10"`
	}

	errs := middleware.ValidateStruct(&req{Limit: 11})
	assert.Equal(t, "title is required!", errs["title"])
	assert.Equal(t, "limit must be at most 10!", errs["limit"])
	assert.Nil(t, middleware.ValidateStruct(&req{Title: "ok"}))
}

func TestJWTAndCapabilities(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: "test-key"}

	app := fiber.New()
	app.Get("/author", middleware.JWTMiddleware, middleware.RequireCapability(models.CapAuthorCourse), func(c *fiber.Ctx) error {
		actor, ok := middleware.CurrentActor(c)
		assert.True(t, ok)
		assert.Equal(t, uint(7), actor.UserID)
		return c.SendString("ok")
	})

	token, err := middleware.GenerateJWT(7, "Ira", "ira@example.com", models.Roles(models.RoleStudent).With(models.RoleInstructor))
	require.NoError(t, err)
	studentToken, err := middleware.GenerateJWT(8, "Sam", "sam@example.com", models.Roles(models.RoleStudent))
	require.NoError(t, err)

	call := func(authorization string) int {
		req := httptest.NewRequest("GET", "/author", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, call("Bearer "+token))
	assert.Equal(t, fiber.StatusForbidden, call("Bearer "+studentToken))
	assert.Equal(t, fiber.StatusUnauthorized, call(""))
	assert.Equal(t, fiber.StatusUnauthorized, call("Bearer not-a-token"))
}

func TestIDParams(t *testing.T) {
	app := fiber.New()
	app.Get("/course/:id", middleware.IDParams("id"), func(c *fiber.Ctx) error {
		assert.Equal(t, uint(42), middleware.ParamID(c, "id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/course/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/course/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestNilRateLimiterAllowsRequests(t *testing.T) {
	var limiter *middleware.RateLimiter
	app := fiber.New()
	app.Get("/", limiter.Limit("test", 1, 0), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

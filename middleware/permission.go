package middleware

import (
	"studysync/models"
	"studysync/services"

	"github.com/gofiber/fiber/v2"
)

// CurrentActor returns the authenticated caller set by JWTMiddleware.
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	userID, ok := c.Locals("userId").(uint)
	if !ok || userID == 0 {
		return services.Actor{}, false
	}
	roles, _ := c.Locals("roles").(models.Roles)
	return services.Actor{UserID: userID, Roles: roles}, true
}

// RequireCapability returns a middleware that checks the caller's roles grant the capability
func RequireCapability(capability models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		if !models.Can(actor.Roles, capability) {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}

		return c.Next()
	}
}

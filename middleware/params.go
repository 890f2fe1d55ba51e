package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// IDParams parses the named route params as positive ids and stores each in
// Locals under the same name. Responds 400 on the first bad value.
func IDParams(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			raw := strings.TrimSpace(c.Params(name))
			if raw == "" {
				return JsonResponse(c, fiber.StatusBadRequest, false, name+" is required!", nil)
			}
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+name+"!", nil)
			}
			c.Locals(name, uint(id))
		}
		return c.Next()
	}
}

// ParamID returns an id stored by IDParams.
func ParamID(c *fiber.Ctx, name string) uint {
	id, _ := c.Locals(name).(uint)
	return id
}

package certificateValidator

import (
	"strings"
	"studysync/middleware"

	"github.com/gofiber/fiber/v2"
)

type RevokeRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// CertificateID checks the :certificateId param looks like an issued id.
func CertificateID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Params("certificateId"))
		if !strings.HasPrefix(id, "SS-") || len(id) > 64 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate ID!", nil)
		}
		c.Locals("certificateId", id)
		return c.Next()
	}
}

func Revoke() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RevokeRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Reason = strings.TrimSpace(reqData.Reason)
		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRevoke", reqData)
		return c.Next()
	}
}

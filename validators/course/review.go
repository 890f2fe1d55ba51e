package courseValidator

import (
	"strings"
	"studysync/middleware"

	"github.com/gofiber/fiber/v2"
)

type SubmitReviewRequest struct {
	AdminID uint `json:"admin_id"`
}

type RejectRequest struct {
	Note string `json:"note" validate:"required,min=3,max=2000"`
}

// SubmitReview accepts an optional body naming the reviewing admin.
func SubmitReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitReviewRequest)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}

		c.Locals("validatedSubmitReview", reqData)
		return c.Next()
	}
}

func RejectCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RejectRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Note = strings.TrimSpace(reqData.Note)
		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReject", reqData)
		return c.Next()
	}
}

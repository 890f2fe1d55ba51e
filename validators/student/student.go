package studentValidator

import (
	"studysync/middleware"

	"github.com/gofiber/fiber/v2"
)

type SubmitQuizRequest struct {
	Answers []int `json:"answers" validate:"required,min=1,dive,min=0"`
}

type CommentRequest struct {
	Body     string `json:"body" validate:"required,max=4000"`
	ParentID *uint  `json:"parent_id" validate:"omitempty,gt=0"`
}

func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitQuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSubmitQuiz", reqData)
		return c.Next()
	}
}

func PostComment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CommentRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedComment", reqData)
		return c.Next()
	}
}

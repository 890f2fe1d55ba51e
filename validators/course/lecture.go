package courseValidator

import (
	"strings"
	"studysync/middleware"

	"github.com/gofiber/fiber/v2"
)

type LectureRequest struct {
	Title                  string `json:"title" form:"title" validate:"required,min=2,max=200"`
	Description            string `json:"description" form:"description" validate:"max=10000"`
	Order                  *int   `json:"order" form:"order" validate:"omitempty,min=0"`
	Duration               int    `json:"duration" form:"duration" validate:"min=0"`
	RequiredPassPercentage *int   `json:"required_pass_percentage" form:"required_pass_percentage" validate:"omitempty,min=0,max=100"`
}

type MCQRequest struct {
	Question      string   `json:"question" validate:"required,max=2000"`
	Options       []string `json:"options" validate:"required,min=2,max=10,dive,required,max=500"`
	CorrectOption *int     `json:"correct_option" validate:"required,min=0"`
	Position      int      `json:"position" validate:"min=0"`
}

type FinalQuizRequest struct {
	Title             string       `json:"title" validate:"max=200"`
	PassingPercentage *int         `json:"passing_percentage" validate:"omitempty,min=0,max=100"`
	Questions         []MCQRequest `json:"questions" validate:"required,min=1,dive"`
}

// Lecture accepts JSON or multipart form data; a multipart "video" file is optional.
func Lecture() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LectureRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)

		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		if file, err := c.FormFile("video"); err == nil {
			c.Locals("mediaFile", file)
		}
		c.Locals("validatedLecture", reqData)
		return c.Next()
	}
}

func checkCorrectOption(q MCQRequest) bool {
	return q.CorrectOption != nil && *q.CorrectOption < len(q.Options)
}

func MCQ() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(MCQRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		if !checkCorrectOption(*reqData) {
			return middleware.ValidationErrorResponse(c, map[string]string{"correct_option": "Correct option must index one of the options!"})
		}

		c.Locals("validatedMCQ", reqData)
		return c.Next()
	}
}

func FinalQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(FinalQuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		for _, q := range reqData.Questions {
			if !checkCorrectOption(q) {
				return middleware.ValidationErrorResponse(c, map[string]string{"questions": "Every correct option must index one of its options!"})
			}
		}

		c.Locals("validatedFinalQuiz", reqData)
		return c.Next()
	}
}

package courseValidator

import (
	"strings"
	"studysync/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CourseRequest struct {
	Title                        string          `json:"title" validate:"required,min=3,max=200"`
	Description                  string          `json:"description" validate:"max=10000"`
	Category                     string          `json:"category" validate:"max=100"`
	Level                        string          `json:"level" validate:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Price                        decimal.Decimal `json:"price"`
	RequiredCompletionPercentage *int            `json:"required_completion_percentage" validate:"omitempty,min=0,max=100"`
}

type CourseListRequest struct {
	Page     int    `query:"page" json:"page" validate:"omitempty,min=1"`
	Limit    int    `query:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	Category string `query:"category" json:"category"`
}

func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Level = strings.ToUpper(strings.TrimSpace(reqData.Level))

		errors := middleware.ValidateStruct(reqData)
		if errors == nil {
			errors = map[string]string{}
		}
		if !reqData.Price.IsPositive() {
			errors["price"] = "Price must be greater than 0!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseListRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		if reqData.Page == 0 {
			reqData.Page = 1
		}
		if reqData.Limit == 0 {
			reqData.Limit = 20
		}

		c.Locals("validatedCourseList", reqData)
		return c.Next()
	}
}

// CourseMedia requires a multipart "file" field and a kind of thumbnail or preview.
func CourseMedia() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind := strings.ToLower(strings.TrimSpace(c.Params("kind")))
		if kind != "thumbnail" && kind != "preview" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Media kind must be thumbnail or preview!", nil)
		}
		file, err := c.FormFile("file")
		if err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"file": "file is required!"})
		}

		c.Locals("mediaKind", kind)
		c.Locals("mediaFile", file)
		return c.Next()
	}
}

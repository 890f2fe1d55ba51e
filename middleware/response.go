package middleware

import (
	"reflect"
	"strings"
	"studysync/services"
	"studysync/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}

// StatusFor maps a service error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidSignature),
		errors.Is(err, services.ErrAmountMismatch),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrNotEligible):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrAlreadyProcessed),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrNotCurrentLecture),
		errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorResponse writes a service error in the standard envelope. Internal
// errors are reported and their details hidden from the client.
func ErrorResponse(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		utils.ReportError(err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"userId": c.Locals("userId"),
		})
		message := "Something went wrong!"
		if errors.Is(err, services.ErrTransactionFailed) {
			message = "Payment could not be processed. Please retry!"
		}
		return JsonResponse(c, status, false, message, nil)
	}
	return JsonResponse(c, status, false, err.Error(), nil)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the `validate` tags and returns one message per failing field.
func ValidateStruct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required!"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + "!"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + "!"
	case "email":
		return "Invalid email format!"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param() + "!"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param() + "!"
	default:
		return fe.Field() + " is invalid!"
	}
}

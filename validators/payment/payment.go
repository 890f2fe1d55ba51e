package paymentValidator

import (
	"strings"
	"studysync/middleware"

	"github.com/gofiber/fiber/v2"
)

type CreateOrderRequest struct {
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required,max=64"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required,max=64"`
	GatewaySignature string `json:"gateway_signature" validate:"required,hexadecimal,max=128"`
	CourseID         uint   `json:"course_id" validate:"required,gt=0"`
}

func CreateOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateOrderRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCreateOrder", reqData)
		return c.Next()
	}
}

func VerifyPayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(VerifyPaymentRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.GatewayOrderID = strings.TrimSpace(reqData.GatewayOrderID)
		reqData.GatewayPaymentID = strings.TrimSpace(reqData.GatewayPaymentID)
		reqData.GatewaySignature = strings.TrimSpace(reqData.GatewaySignature)

		if errors := middleware.ValidateStruct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedVerifyPayment", reqData)
		return c.Next()
	}
}

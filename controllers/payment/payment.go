package paymentController

import (
	"studysync/middleware"
	"studysync/services/payment"
	paymentValidator "studysync/validators/payment"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	payments *payment.Service
}

func New(payments *payment.Service) *Controller {
	return &Controller{payments: payments}
}

func (ctl *Controller) CreateOrder(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData := c.Locals("validatedCreateOrder").(*paymentValidator.CreateOrderRequest)

	order, err := ctl.payments.CreateOrder(c.UserContext(), actor.UserID, reqData.CourseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Order created successfully!", order)
}

func (ctl *Controller) VerifyPayment(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData := c.Locals("validatedVerifyPayment").(*paymentValidator.VerifyPaymentRequest)

	p, err := ctl.payments.Verify(c.UserContext(), payment.VerifyInput{
		UserID:    actor.UserID,
		CourseID:  reqData.CourseID,
		OrderID:   reqData.GatewayOrderID,
		PaymentID: reqData.GatewayPaymentID,
		Signature: reqData.GatewaySignature,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment verified, you are enrolled!", p)
}

func (ctl *Controller) History(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	payments, err := ctl.payments.History(c.UserContext(), actor.UserID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment history fetched successfully!", payments)
}

func (ctl *Controller) Earnings(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	earnings, err := ctl.payments.InstructorEarnings(c.UserContext(), actor.UserID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Earnings fetched successfully!", earnings)
}

func (ctl *Controller) Revenue(c *fiber.Ctx) error {
	revenue, err := ctl.payments.PlatformRevenue(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Revenue fetched successfully!", revenue)
}

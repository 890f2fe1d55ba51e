package paymentRoutes

import (
	paymentController "studysync/controllers/payment"
	"studysync/middleware"
	"studysync/models"
	paymentValidator "studysync/validators/payment"
	"time"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App, ctl *paymentController.Controller, limiter *middleware.RateLimiter) {
	paymentGroup := app.Group("/payment", middleware.JWTMiddleware, middleware.RequireCapability(models.CapPurchaseCourse))

	paymentGroup.Post("/create-order", paymentValidator.CreateOrder(), ctl.CreateOrder)
	paymentGroup.Post("/verify-payment", limiter.Limit("verify-payment", 10, time.Minute), paymentValidator.VerifyPayment(), ctl.VerifyPayment)

	userGroup := app.Group("/user", middleware.JWTMiddleware)
	userGroup.Get("/payments", ctl.History)

	app.Get("/instructor/earnings", middleware.JWTMiddleware, middleware.RequireCapability(models.CapViewEarnings), ctl.Earnings)
	app.Get("/admin/revenue", middleware.JWTMiddleware, middleware.RequireCapability(models.CapViewRevenue), ctl.Revenue)
}

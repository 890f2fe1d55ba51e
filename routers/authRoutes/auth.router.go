package authRoutes

import (
	authController "studysync/controllers/auth"
	"studysync/middleware"
	authValidator "studysync/validators/auth"
	"time"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, ctl *authController.Controller, limiter *middleware.RateLimiter) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", limiter.Limit("signup", 10, time.Hour), authValidator.Signup(), ctl.Signup)
	authGroup.Post("/login", limiter.Limit("login", 20, 15*time.Minute), authValidator.Login(), ctl.Login)
	authGroup.Get("/me", middleware.JWTMiddleware, ctl.Me)
}

package routers

import (
	adminController "studysync/controllers/admin"
	authController "studysync/controllers/auth"
	certificateController "studysync/controllers/certificate"
	courseController "studysync/controllers/course"
	paymentController "studysync/controllers/payment"
	studentController "studysync/controllers/student"
	"studysync/middleware"
	"studysync/routers/adminRoutes"
	"studysync/routers/authRoutes"
	"studysync/routers/certificateRoutes"
	"studysync/routers/courseRoutes"
	"studysync/routers/paymentRoutes"
	"studysync/routers/studentRoutes"
	"studysync/services/cart"
	"studysync/services/catalog"
	"studysync/services/certificate"
	"studysync/services/comment"
	"studysync/services/payment"
	"studysync/services/progress"
	"studysync/services/review"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	DB           *gorm.DB
	Payments     *payment.Service
	Tracker      *progress.Tracker
	Certificates *certificate.Issuer
	Catalog      *catalog.Service
	Reviews      *review.Service
	Comments     *comment.Service
	Cart         *cart.Service
	Limiter      *middleware.RateLimiter

	AppName      string
	AllowOrigins string
	StaticDir    string
	Quiet        bool // skip the request logger, used by tests
}

// New builds the fiber app with every route group registered.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   d.AppName,
		BodyLimit: 512 * 1024 * 1024, // lecture videos
	})

	app.Use(recover.New())

	allowOrigins := d.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	if !d.Quiet {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	// Serve static files (local media uploads) from the public folder
	if d.StaticDir != "" {
		app.Static("/", d.StaticDir)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})

	authRoutes.SetupAuthRoutes(app, authController.New(d.DB), d.Limiter)
	paymentRoutes.SetupPaymentRoutes(app, paymentController.New(d.Payments), d.Limiter)
	studentRoutes.SetupStudentRoutes(app, studentController.New(d.Tracker, d.Catalog, d.Cart, d.Comments), d.Limiter)
	courseRoutes.SetupCourseRoutes(app, courseController.New(d.Catalog, d.Reviews))
	certificateRoutes.SetupCertificateRoutes(app, certificateController.New(d.Certificates, d.AppName))
	adminRoutes.SetupAdminRoutes(app, adminController.New(d.Reviews))

	return app
}

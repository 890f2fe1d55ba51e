package adminRoutes

import (
	adminController "studysync/controllers/admin"
	"studysync/middleware"
	"studysync/models"
	courseValidator "studysync/validators/course"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, ctl *adminController.Controller) {
	reviewGroup := app.Group("/admin/reviews", middleware.JWTMiddleware, middleware.RequireCapability(models.CapReviewCourse))

	reviewGroup.Get("/", ctl.Reviews)
	reviewGroup.Post("/:id/approve", middleware.IDParams("id"), ctl.Approve)
	reviewGroup.Post("/:id/reject", middleware.IDParams("id"), courseValidator.RejectCourse(), ctl.Reject)
}

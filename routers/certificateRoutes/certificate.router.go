package certificateRoutes

import (
	certificateController "studysync/controllers/certificate"
	"studysync/middleware"
	"studysync/models"
	certificateValidator "studysync/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

func SetupCertificateRoutes(app *fiber.App, ctl *certificateController.Controller) {
	certGroup := app.Group("/certificate")

	certGroup.Get("/verify/:certificateId", certificateValidator.CertificateID(), ctl.Verify)
	certGroup.Get("/download/:certificateId", middleware.JWTMiddleware, certificateValidator.CertificateID(), ctl.Download)
	certGroup.Get("/my", middleware.JWTMiddleware, middleware.RequireCapability(models.CapLearn), ctl.My)
	certGroup.Post("/:courseId/generate", middleware.JWTMiddleware, middleware.RequireCapability(models.CapLearn), middleware.IDParams("courseId"), ctl.Generate)

	app.Post("/admin/certificate/:certificateId/revoke",
		middleware.JWTMiddleware,
		middleware.RequireCapability(models.CapRevokeCertificate),
		certificateValidator.CertificateID(),
		certificateValidator.Revoke(),
		ctl.Revoke,
	)
}

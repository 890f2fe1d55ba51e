package certificateController

import (
	"bytes"
	"fmt"
	"studysync/middleware"
	"studysync/models"
	"studysync/services/certificate"
	certificateValidator "studysync/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	issuer  *certificate.Issuer
	appName string
}

func New(issuer *certificate.Issuer, appName string) *Controller {
	return &Controller{issuer: issuer, appName: appName}
}

// Download streams the PDF to the certificate owner or an admin.
func (ctl *Controller) Download(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	id := c.Locals("certificateId").(string)

	cert, err := ctl.issuer.Get(c.UserContext(), id)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if cert.UserID != actor.UserID && !actor.Is(models.RoleAdmin) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	}

	var buf bytes.Buffer
	if err := certificate.RenderPDF(&buf, cert, ctl.appName); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", cert.CertificateID+".pdf"))
	return c.Send(buf.Bytes())
}

func (ctl *Controller) Verify(c *fiber.Ctx) error {
	verification, err := ctl.issuer.Verify(c.UserContext(), c.Locals("certificateId").(string))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate verified.", verification)
}

func (ctl *Controller) My(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	certs, err := ctl.issuer.ListForUser(c.UserContext(), actor.UserID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certs)
}

func (ctl *Controller) Generate(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	cert, err := ctl.issuer.Issue(c.UserContext(), actor.UserID, middleware.ParamID(c, "courseId"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate generated successfully!", cert)
}

func (ctl *Controller) Revoke(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRevoke").(*certificateValidator.RevokeRequest)

	cert, err := ctl.issuer.Revoke(c.UserContext(), c.Locals("certificateId").(string), reqData.Reason)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate revoked.", cert)
}

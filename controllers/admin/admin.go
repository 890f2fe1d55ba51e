package adminController

import (
	"studysync/middleware"
	"studysync/services/review"
	courseValidator "studysync/validators/course"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	reviews *review.Service
}

func New(reviews *review.Service) *Controller {
	return &Controller{reviews: reviews}
}

func (ctl *Controller) Reviews(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	courses, err := ctl.reviews.Pending(c.UserContext(), actor.UserID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending reviews fetched successfully!", courses)
}

func (ctl *Controller) Approve(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	course, err := ctl.reviews.Approve(c.UserContext(), actor, middleware.ParamID(c, "id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course approved and published!", course)
}

func (ctl *Controller) Reject(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedReject").(*courseValidator.RejectRequest)

	course, err := ctl.reviews.Reject(c.UserContext(), actor, middleware.ParamID(c, "id"), reqData.Note)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course rejected.", course)
}

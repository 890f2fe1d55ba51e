package studentController

import (
	"studysync/middleware"
	"studysync/services/cart"
	"studysync/services/catalog"
	"studysync/services/comment"
	"studysync/services/progress"
	studentValidator "studysync/validators/student"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	tracker  *progress.Tracker
	catalog  *catalog.Service
	cart     *cart.Service
	comments *comment.Service
}

func New(tracker *progress.Tracker, catalogService *catalog.Service, cartService *cart.Service, comments *comment.Service) *Controller {
	return &Controller{tracker: tracker, catalog: catalogService, cart: cartService, comments: comments}
}

func (ctl *Controller) Learn(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	view, err := ctl.tracker.LearnerView(c.UserContext(), actor.UserID, middleware.ParamID(c, "courseId"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully!", view)
}

func (ctl *Controller) SubmitLectureQuiz(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedSubmitQuiz").(*studentValidator.SubmitQuizRequest)

	result, err := ctl.tracker.SubmitLectureQuiz(c.UserContext(), actor.UserID,
		middleware.ParamID(c, "courseId"), middleware.ParamID(c, "lectureId"), reqData.Answers)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	message := "Quiz not passed, review the lecture and try again."
	if result.IsPassed {
		message = "Quiz passed!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}

func (ctl *Controller) SubmitFinalQuiz(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedSubmitQuiz").(*studentValidator.SubmitQuizRequest)

	result, err := ctl.tracker.SubmitFinalQuiz(c.UserContext(), actor.UserID, middleware.ParamID(c, "courseId"), reqData.Answers)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	message := "Final quiz not passed."
	if result.IsPassed {
		message = "Final quiz passed, certificate issued!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}

func (ctl *Controller) Attempts(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	attempts, err := ctl.tracker.Attempts(c.UserContext(), actor.UserID,
		middleware.ParamID(c, "courseId"), middleware.ParamID(c, "lectureId"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched successfully!", attempts)
}

func (ctl *Controller) MyCourses(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	courses, err := ctl.catalog.EnrolledCourses(c.UserContext(), actor.UserID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Purchased courses fetched successfully!", courses)
}

func (ctl *Controller) Cart(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	items, err := ctl.cart.List(c.UserContext(), actor.UserID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cart fetched successfully!", items)
}

func (ctl *Controller) AddToCart(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	items, err := ctl.cart.Add(c.UserContext(), actor.UserID, middleware.ParamID(c, "courseId"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course added to cart!", items)
}

func (ctl *Controller) RemoveFromCart(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	items, err := ctl.cart.Remove(c.UserContext(), actor.UserID, middleware.ParamID(c, "courseId"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course removed from cart!", items)
}

func (ctl *Controller) PostComment(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedComment").(*studentValidator.CommentRequest)

	created, err := ctl.comments.Post(c.UserContext(), actor,
		middleware.ParamID(c, "courseId"), middleware.ParamID(c, "lectureId"), reqData.ParentID, reqData.Body)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Comment posted!", created)
}

func (ctl *Controller) Comments(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	thread, err := ctl.comments.Thread(c.UserContext(), actor,
		middleware.ParamID(c, "courseId"), middleware.ParamID(c, "lectureId"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Comments fetched successfully!", thread)
}

func (ctl *Controller) DeleteComment(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	removed, err := ctl.comments.Delete(c.UserContext(), actor, middleware.ParamID(c, "id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Comment deleted!", fiber.Map{"removed": removed})
}

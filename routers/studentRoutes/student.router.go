package studentRoutes

import (
	studentController "studysync/controllers/student"
	"studysync/middleware"
	"studysync/models"
	studentValidator "studysync/validators/student"
	"time"

	"github.com/gofiber/fiber/v2"
)

func SetupStudentRoutes(app *fiber.App, ctl *studentController.Controller, limiter *middleware.RateLimiter) {
	studentGroup := app.Group("/student", middleware.JWTMiddleware)
	learner := middleware.RequireCapability(models.CapLearn)
	course := middleware.IDParams("courseId")
	lecture := middleware.IDParams("courseId", "lectureId")
	quizLimit := limiter.Limit("quiz-submit", 30, time.Minute)

	studentGroup.Get("/courses", learner, ctl.MyCourses)
	studentGroup.Get("/:courseId/learn", learner, course, ctl.Learn)
	studentGroup.Post("/:courseId/lecture/:lectureId/unlock", learner, quizLimit, lecture, studentValidator.SubmitQuiz(), ctl.SubmitLectureQuiz)
	studentGroup.Get("/:courseId/lecture/:lectureId/attempts", learner, lecture, ctl.Attempts)
	studentGroup.Post("/:courseId/final-quiz/submit", learner, quizLimit, course, studentValidator.SubmitQuiz(), ctl.SubmitFinalQuiz)

	// Instructors and admins join lecture discussions too; the service checks access.
	studentGroup.Get("/:courseId/lecture/:lectureId/comments", lecture, ctl.Comments)
	studentGroup.Post("/:courseId/lecture/:lectureId/comments", lecture, studentValidator.PostComment(), ctl.PostComment)
	app.Delete("/comments/:id", middleware.JWTMiddleware, middleware.IDParams("id"), ctl.DeleteComment)

	cartGroup := app.Group("/user/cart", middleware.JWTMiddleware, middleware.RequireCapability(models.CapPurchaseCourse))
	cartGroup.Get("/", ctl.Cart)
	cartGroup.Post("/:courseId", course, ctl.AddToCart)
	cartGroup.Delete("/:courseId", course, ctl.RemoveFromCart)
}

package courseRoutes

import (
	courseController "studysync/controllers/course"
	"studysync/middleware"
	"studysync/models"
	courseValidator "studysync/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes registers the public catalog and the instructor authoring routes
func SetupCourseRoutes(app *fiber.App, ctl *courseController.Controller) {
	courseGroup := app.Group("/course")
	courseGroup.Get("/", courseValidator.CourseList(), ctl.List)
	courseGroup.Get("/:id", middleware.OptionalJWT, middleware.IDParams("id"), ctl.Detail)

	instructorGroup := app.Group("/instructor", middleware.JWTMiddleware, middleware.RequireCapability(models.CapAuthorCourse))
	course := middleware.IDParams("id")
	lecture := middleware.IDParams("lectureId")

	// Course CRUD
	instructorGroup.Get("/courses", ctl.MyCourses)
	instructorGroup.Post("/course", courseValidator.CreateCourse(), ctl.Create)
	instructorGroup.Put("/course/:id", course, courseValidator.CreateCourse(), ctl.Update)
	instructorGroup.Delete("/course/:id", course, ctl.Delete)
	instructorGroup.Post("/course/:id/media/:kind", course, courseValidator.CourseMedia(), ctl.UploadMedia)
	instructorGroup.Post("/course/:id/submit", course, courseValidator.SubmitReview(), ctl.SubmitForReview)

	// Lectures and quizzes
	instructorGroup.Post("/course/:id/lecture", course, courseValidator.Lecture(), ctl.AddLecture)
	instructorGroup.Put("/lecture/:lectureId", lecture, courseValidator.Lecture(), ctl.UpdateLecture)
	instructorGroup.Delete("/lecture/:lectureId", lecture, ctl.DeleteLecture)
	instructorGroup.Post("/lecture/:lectureId/mcq", lecture, courseValidator.MCQ(), ctl.AddMCQ)
	instructorGroup.Put("/course/:id/final-quiz", course, courseValidator.FinalQuiz(), ctl.SetFinalQuiz)
}

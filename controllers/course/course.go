package courseController

import (
	"mime/multipart"
	"studysync/middleware"
	"studysync/services/catalog"
	"studysync/services/review"
	courseValidator "studysync/validators/course"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type Controller struct {
	catalog *catalog.Service
	reviews *review.Service
}

func New(catalogService *catalog.Service, reviews *review.Service) *Controller {
	return &Controller{catalog: catalogService, reviews: reviews}
}

// openUpload turns a multipart file into a catalog upload. The caller closes it.
func openUpload(file *multipart.FileHeader) (*catalog.Upload, multipart.File, error) {
	f, err := file.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening upload")
	}
	return &catalog.Upload{Filename: file.Filename, Reader: f}, f, nil
}

func courseInput(reqData *courseValidator.CourseRequest) catalog.CourseInput {
	return catalog.CourseInput{
		Title:                        reqData.Title,
		Description:                  reqData.Description,
		Category:                     reqData.Category,
		Level:                        reqData.Level,
		Price:                        reqData.Price,
		RequiredCompletionPercentage: reqData.RequiredCompletionPercentage,
	}
}

func mcqInput(q courseValidator.MCQRequest) catalog.MCQInput {
	in := catalog.MCQInput{Question: q.Question, Options: q.Options, Position: q.Position}
	if q.CorrectOption != nil {
		in.CorrectOption = *q.CorrectOption
	}
	return in
}

func (ctl *Controller) List(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCourseList").(*courseValidator.CourseListRequest)

	courses, total, err := ctl.catalog.ListPublished(c.UserContext(), reqData.Page, reqData.Limit, reqData.Category)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"total":   total,
		"page":    reqData.Page,
		"limit":   reqData.Limit,
	})
}

func (ctl *Controller) Detail(c *fiber.Ctx) error {
	viewerID, _ := c.Locals("userId").(uint)

	detail, err := ctl.catalog.Detail(c.UserContext(), middleware.ParamID(c, "id"), viewerID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", detail)
}

func (ctl *Controller) Create(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedCourse").(*courseValidator.CourseRequest)

	course, err := ctl.catalog.CreateCourse(c.UserContext(), actor, courseInput(reqData))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

func (ctl *Controller) Update(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedCourse").(*courseValidator.CourseRequest)

	course, err := ctl.catalog.UpdateCourse(c.UserContext(), actor, middleware.ParamID(c, "id"), courseInput(reqData))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

func (ctl *Controller) UploadMedia(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	kind := c.Locals("mediaKind").(string)
	file := c.Locals("mediaFile").(*multipart.FileHeader)

	up, f, err := openUpload(file)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	defer f.Close()

	course, err := ctl.catalog.SetCourseMedia(c.UserContext(), actor, middleware.ParamID(c, "id"), kind, *up)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Media uploaded successfully!", course)
}

func lectureInput(reqData *courseValidator.LectureRequest) catalog.LectureInput {
	return catalog.LectureInput{
		Title:                  reqData.Title,
		Description:            reqData.Description,
		Order:                  reqData.Order,
		Duration:               reqData.Duration,
		RequiredPassPercentage: reqData.RequiredPassPercentage,
	}
}

// lectureVideo opens the optional video stored by the Lecture validator.
func lectureVideo(c *fiber.Ctx) (*catalog.Upload, func(), error) {
	file, ok := c.Locals("mediaFile").(*multipart.FileHeader)
	if !ok || file == nil {
		return nil, func() {}, nil
	}
	up, f, err := openUpload(file)
	if err != nil {
		return nil, func() {}, err
	}
	return up, func() { f.Close() }, nil
}

func (ctl *Controller) AddLecture(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedLecture").(*courseValidator.LectureRequest)

	video, done, err := lectureVideo(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	defer done()

	lecture, err := ctl.catalog.AddLecture(c.UserContext(), actor, middleware.ParamID(c, "id"), lectureInput(reqData), video)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lecture added successfully!", lecture)
}

func (ctl *Controller) UpdateLecture(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedLecture").(*courseValidator.LectureRequest)

	video, done, err := lectureVideo(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	defer done()

	lecture, err := ctl.catalog.UpdateLecture(c.UserContext(), actor, middleware.ParamID(c, "lectureId"), lectureInput(reqData), video)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture updated successfully!", lecture)
}

func (ctl *Controller) DeleteLecture(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	report, err := ctl.catalog.DeleteLecture(c.UserContext(), actor, middleware.ParamID(c, "lectureId"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture deleted successfully!", report)
}

func (ctl *Controller) AddMCQ(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedMCQ").(*courseValidator.MCQRequest)

	mcq, err := ctl.catalog.AddMCQ(c.UserContext(), actor, middleware.ParamID(c, "lectureId"), mcqInput(*reqData))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question added successfully!", mcq)
}

func (ctl *Controller) SetFinalQuiz(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedFinalQuiz").(*courseValidator.FinalQuizRequest)

	in := catalog.FinalQuizInput{Title: reqData.Title, PassingPercentage: reqData.PassingPercentage}
	for _, q := range reqData.Questions {
		in.Questions = append(in.Questions, mcqInput(q))
	}

	quiz, err := ctl.catalog.SetFinalQuiz(c.UserContext(), actor, middleware.ParamID(c, "id"), in)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Final quiz saved successfully!", quiz)
}

func (ctl *Controller) MyCourses(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	courses, err := ctl.catalog.InstructorCourses(c.UserContext(), actor.UserID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", courses)
}

func (ctl *Controller) Delete(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)

	report, err := ctl.catalog.DeleteCourse(c.UserContext(), actor, middleware.ParamID(c, "id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", report)
}

func (ctl *Controller) SubmitForReview(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentActor(c)
	reqData := c.Locals("validatedSubmitReview").(*courseValidator.SubmitReviewRequest)

	course, err := ctl.reviews.Submit(c.UserContext(), actor, middleware.ParamID(c, "id"), review.PolicyFor(reqData.AdminID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course submitted for review!", course)
}

package catalog

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
	"studysync/services/media"
	"studysync/services/progress"
)

// Service manages courses, lectures and their quizzes.
type Service struct {
	db       *gorm.DB
	store    media.Store
	releaser *media.Releaser
}

func NewService(db *gorm.DB, store media.Store, releaser *media.Releaser) *Service {
	return &Service{db: db, store: store, releaser: releaser}
}

type CourseInput struct {
	Title                        string
	Description                  string
	Category                     string
	Level                        string
	Price                        decimal.Decimal
	RequiredCompletionPercentage *int
}

type LectureInput struct {
	Title                  string
	Description            string
	Order                  *int
	Duration               int
	RequiredPassPercentage *int
}

type MCQInput struct {
	Question      string
	Options       []string
	CorrectOption int
	Position      int
}

type FinalQuizInput struct {
	Title             string
	PassingPercentage *int
	Questions         []MCQInput
}

// Upload is a file received from the client.
type Upload struct {
	Filename string
	Reader   io.Reader
}

func validPercent(p *int) bool {
	return p == nil || (*p >= 0 && *p <= 100)
}

func (in CourseInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return services.Invalid("title is required")
	}
	if !in.Price.IsPositive() {
		return services.Invalid("price must be greater than zero")
	}
	if !validPercent(in.RequiredCompletionPercentage) {
		return services.Invalid("required completion percentage must be between 0 and 100")
	}
	return nil
}

func (in MCQInput) validate() error {
	if strings.TrimSpace(in.Question) == "" {
		return services.Invalid("question is required")
	}
	if len(in.Options) < 2 {
		return services.Invalid("a question needs at least two options")
	}
	for _, o := range in.Options {
		if strings.TrimSpace(o) == "" {
			return services.Invalid("options cannot be empty")
		}
	}
	if in.CorrectOption < 0 || in.CorrectOption >= len(in.Options) {
		return services.Invalid("correct option %d is out of range", in.CorrectOption)
	}
	return nil
}

// canEdit allows the owning instructor and admins.
func canEdit(actor services.Actor, course *courseModels.Course) bool {
	return course.InstructorID == actor.UserID || actor.Is(models.RoleAdmin)
}

func (s *Service) editableCourse(tx *gorm.DB, actor services.Actor, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := tx.First(&course, courseID).Error; err != nil {
		return nil, services.Lookup(err, "course")
	}
	if !canEdit(actor, &course) {
		return nil, errors.Wrap(services.ErrUnauthorized, "not the course instructor")
	}
	return &course, nil
}

func (s *Service) CreateCourse(ctx context.Context, actor services.Actor, in CourseInput) (*courseModels.Course, error) {
	if !actor.Can(models.CapAuthorCourse) {
		return nil, services.ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	course := courseModels.Course{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     in.Category,
		Level:        in.Level,
		Price:        in.Price.Round(2),
		InstructorID: actor.UserID,
		Status:       courseModels.StatusDraft,

		RequiredCompletionPercentage: courseModels.DefaultRequiredCompletionPercentage,
	}
	if in.RequiredCompletionPercentage != nil {
		course.RequiredCompletionPercentage = *in.RequiredCompletionPercentage
	}
	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, errors.Wrap(err, "creating course")
	}
	return &course, nil
}

// UpdateCourse edits course details. The instructor never changes.
func (s *Service) UpdateCourse(ctx context.Context, actor services.Actor, courseID uint, in CourseInput) (*courseModels.Course, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	course, err := s.editableCourse(db, actor, courseID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":       strings.TrimSpace(in.Title),
		"description": in.Description,
		"category":    in.Category,
		"level":       in.Level,
		"price":       in.Price.Round(2),
	}
	if in.RequiredCompletionPercentage != nil {
		updates["required_completion_percentage"] = *in.RequiredCompletionPercentage
	}
	if err := db.Model(course).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "updating course")
	}
	if err := db.First(course, courseID).Error; err != nil {
		return nil, errors.Wrap(err, "reloading course")
	}
	return course, nil
}

const (
	MediaThumbnail = "thumbnail"
	MediaPreview   = "preview"
)

// SetCourseMedia uploads a thumbnail or preview video and queues the replaced asset for release.
func (s *Service) SetCourseMedia(ctx context.Context, actor services.Actor, courseID uint, kind string, up Upload) (*courseModels.Course, error) {
	if kind != MediaThumbnail && kind != MediaPreview {
		return nil, services.Invalid("unknown media kind %q", kind)
	}
	course, err := s.editableCourse(s.db.WithContext(ctx), actor, courseID)
	if err != nil {
		return nil, err
	}

	asset, err := s.store.Upload(ctx, up.Filename, up.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "uploading media")
	}

	urlCol, idCol, oldAsset := "thumbnail_url", "thumbnail_asset_id", course.ThumbnailAssetID
	if kind == MediaPreview {
		urlCol, idCol, oldAsset = "preview_video_url", "preview_video_asset_id", course.PreviewVideoAssetID
	}

	var releaseIDs []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(course).Updates(map[string]interface{}{urlCol: asset.URL, idCol: asset.ID}).Error; err != nil {
			return err
		}
		releaseIDs, err = media.Record(tx, "replaced course "+kind, oldAsset)
		return err
	})
	if err != nil {
		s.discard(ctx, asset)
		return nil, errors.Wrap(err, "saving course media")
	}
	s.releaser.Release(ctx, releaseIDs...)

	if err := s.db.WithContext(ctx).First(course, courseID).Error; err != nil {
		return nil, errors.Wrap(err, "reloading course")
	}
	return course, nil
}

func (s *Service) discard(ctx context.Context, asset media.Asset) {
	if err := s.store.Delete(ctx, asset.ID); err != nil {
		log.Printf("[CATALOG] Error discarding unused asset %s: %v", asset.ID, err)
	}
}

// AddLecture appends a lecture. Without an explicit order it goes after the last lecture.
func (s *Service) AddLecture(ctx context.Context, actor services.Actor, courseID uint, in LectureInput, video *Upload) (*courseModels.Lecture, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, services.Invalid("title is required")
	}
	if !validPercent(in.RequiredPassPercentage) {
		return nil, services.Invalid("required pass percentage must be between 0 and 100")
	}
	if _, err := s.editableCourse(s.db.WithContext(ctx), actor, courseID); err != nil {
		return nil, err
	}

	var asset media.Asset
	if video != nil {
		var err error
		if asset, err = s.store.Upload(ctx, video.Filename, video.Reader); err != nil {
			return nil, errors.Wrap(err, "uploading lecture video")
		}
	}

	lecture := courseModels.Lecture{
		CourseID:     courseID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Duration:     in.Duration,
		VideoURL:     asset.URL,
		VideoAssetID: asset.ID,

		RequiredPassPercentage: courseModels.DefaultRequiredPassPercentage,
	}
	if in.RequiredPassPercentage != nil {
		lecture.RequiredPassPercentage = *in.RequiredPassPercentage
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Order != nil {
			lecture.Order = *in.Order
		} else {
			var maxOrder int
			if err := tx.Model(&courseModels.Lecture{}).Where("course_id = ?", courseID).
				Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder).Error; err != nil {
				return err
			}
			lecture.Order = maxOrder + 1
		}
		if err := tx.Create(&lecture).Error; err != nil {
			return err
		}
		return progress.Reconcile(tx, courseID)
	})
	if err != nil {
		if asset.ID != "" {
			s.discard(ctx, asset)
		}
		return nil, errors.Wrap(err, "creating lecture")
	}
	return &lecture, nil
}

func (s *Service) editableLecture(tx *gorm.DB, actor services.Actor, lectureID uint) (*courseModels.Lecture, error) {
	var lecture courseModels.Lecture
	if err := tx.First(&lecture, lectureID).Error; err != nil {
		return nil, services.Lookup(err, "lecture")
	}
	if _, err := s.editableCourse(tx, actor, lecture.CourseID); err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (s *Service) UpdateLecture(ctx context.Context, actor services.Actor, lectureID uint, in LectureInput, video *Upload) (*courseModels.Lecture, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, services.Invalid("title is required")
	}
	if !validPercent(in.RequiredPassPercentage) {
		return nil, services.Invalid("required pass percentage must be between 0 and 100")
	}
	lecture, err := s.editableLecture(s.db.WithContext(ctx), actor, lectureID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":       strings.TrimSpace(in.Title),
		"description": in.Description,
		"duration":    in.Duration,
	}
	if in.Order != nil {
		updates["sort_order"] = *in.Order
	}
	if in.RequiredPassPercentage != nil {
		updates["required_pass_percentage"] = *in.RequiredPassPercentage
	}

	var asset media.Asset
	if video != nil {
		if asset, err = s.store.Upload(ctx, video.Filename, video.Reader); err != nil {
			return nil, errors.Wrap(err, "uploading lecture video")
		}
		updates["video_url"] = asset.URL
		updates["video_asset_id"] = asset.ID
	}

	reordered := in.Order != nil && *in.Order != lecture.Order
	oldVideo := lecture.VideoAssetID

	var releaseIDs []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(lecture).Updates(updates).Error; err != nil {
			return err
		}
		if reordered {
			// students may now have an earlier uncompleted lecture
			if err := progress.Reconcile(tx, lecture.CourseID); err != nil {
				return err
			}
		}
		if asset.ID != "" {
			releaseIDs, err = media.Record(tx, "replaced lecture video", oldVideo)
		}
		return err
	})
	if err != nil {
		if asset.ID != "" {
			s.discard(ctx, asset)
		}
		return nil, errors.Wrap(err, "updating lecture")
	}
	s.releaser.Release(ctx, releaseIDs...)

	if err := s.db.WithContext(ctx).First(lecture, lectureID).Error; err != nil {
		return nil, errors.Wrap(err, "reloading lecture")
	}
	return lecture, nil
}

func (s *Service) AddMCQ(ctx context.Context, actor services.Actor, lectureID uint, in MCQInput) (*courseModels.MCQ, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	lecture, err := s.editableLecture(s.db.WithContext(ctx), actor, lectureID)
	if err != nil {
		return nil, err
	}

	mcq := courseModels.MCQ{
		LectureID:     &lecture.ID,
		Question:      strings.TrimSpace(in.Question),
		Options:       in.Options,
		CorrectOption: in.CorrectOption,
		Position:      in.Position,
	}
	if err := s.db.WithContext(ctx).Create(&mcq).Error; err != nil {
		return nil, errors.Wrap(err, "creating question")
	}
	return &mcq, nil
}

// SetFinalQuiz creates the course's final quiz or replaces its questions.
func (s *Service) SetFinalQuiz(ctx context.Context, actor services.Actor, courseID uint, in FinalQuizInput) (*courseModels.FinalQuiz, error) {
	if len(in.Questions) == 0 {
		return nil, services.Invalid("a final quiz needs at least one question")
	}
	if !validPercent(in.PassingPercentage) {
		return nil, services.Invalid("passing percentage must be between 0 and 100")
	}
	for _, q := range in.Questions {
		if err := q.validate(); err != nil {
			return nil, err
		}
	}
	if _, err := s.editableCourse(s.db.WithContext(ctx), actor, courseID); err != nil {
		return nil, err
	}

	var quiz courseModels.FinalQuiz
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("course_id = ?", courseID).First(&quiz).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			quiz = courseModels.FinalQuiz{CourseID: courseID, PassingPercentage: courseModels.DefaultFinalPassingPercentage}
		case err != nil:
			return err
		}
		quiz.Title = in.Title
		if in.PassingPercentage != nil {
			quiz.PassingPercentage = *in.PassingPercentage
		}
		if err := tx.Save(&quiz).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("final_quiz_id = ?", quiz.ID).Delete(&courseModels.MCQ{}).Error; err != nil {
			return err
		}
		mcqs := make([]courseModels.MCQ, len(in.Questions))
		for i, q := range in.Questions {
			position := q.Position
			if position == 0 {
				position = i + 1
			}
			mcqs[i] = courseModels.MCQ{
				FinalQuizID:   &quiz.ID,
				Question:      strings.TrimSpace(q.Question),
				Options:       q.Options,
				CorrectOption: q.CorrectOption,
				Position:      position,
			}
		}
		if err := tx.Create(&mcqs).Error; err != nil {
			return err
		}
		quiz.MCQs = mcqs
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "saving final quiz")
	}
	return &quiz, nil
}

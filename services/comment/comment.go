package comment

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
)

const maxBodyLength = 4000

// Service manages lecture discussion threads.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Node is a comment with its replies, oldest first.
type Node struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	AuthorName string    `json:"author_name"`
	ParentID   *uint     `json:"parent_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	Replies    []*Node   `json:"replies"`
}

// canParticipate allows enrolled students, the course instructor and admins.
func (s *Service) canParticipate(tx *gorm.DB, actor services.Actor, course *courseModels.Course) (bool, error) {
	if actor.Is(models.RoleAdmin) || course.InstructorID == actor.UserID {
		return true, nil
	}
	var n int64
	if err := tx.Model(&courseModels.Enrollment{}).Where("user_id = ? AND course_id = ?", actor.UserID, course.ID).Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return n > 0, nil
}

func (s *Service) lectureInCourse(tx *gorm.DB, actor services.Actor, courseID, lectureID uint) error {
	var course courseModels.Course
	if err := tx.First(&course, courseID).Error; err != nil {
		return services.Lookup(err, "course")
	}
	var lecture courseModels.Lecture
	if err := tx.Where("id = ? AND course_id = ?", lectureID, courseID).First(&lecture).Error; err != nil {
		return services.Lookup(err, "lecture")
	}
	ok, err := s.canParticipate(tx, actor, &course)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(services.ErrUnauthorized, "enroll in the course to join the discussion")
	}
	return nil
}

// Post adds a comment, or a reply when parentID is set. The parent must belong to the same lecture.
func (s *Service) Post(ctx context.Context, actor services.Actor, courseID, lectureID uint, parentID *uint, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, services.Invalid("comment cannot be empty")
	}
	if len(body) > maxBodyLength {
		return nil, services.Invalid("comment is longer than %d characters", maxBodyLength)
	}

	db := s.db.WithContext(ctx)
	if err := s.lectureInCourse(db, actor, courseID, lectureID); err != nil {
		return nil, err
	}

	if parentID != nil {
		var parent models.Comment
		if err := db.First(&parent, *parentID).Error; err != nil {
			return nil, services.Lookup(err, "parent comment")
		}
		if parent.LectureID != lectureID {
			return nil, services.Invalid("a reply must belong to the same lecture as its parent")
		}
	}

	c := models.Comment{
		CourseID:  courseID,
		LectureID: lectureID,
		UserID:    actor.UserID,
		ParentID:  parentID,
		Body:      body,
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, errors.Wrap(err, "saving comment")
	}
	return &c, nil
}

// Thread returns the lecture's comments as a forest of top level comments.
func (s *Service) Thread(ctx context.Context, actor services.Actor, courseID, lectureID uint) ([]*Node, error) {
	db := s.db.WithContext(ctx)
	if err := s.lectureInCourse(db, actor, courseID, lectureID); err != nil {
		return nil, err
	}

	var rows []models.Comment
	if err := db.Where("lecture_id = ?", lectureID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "loading comments")
	}

	authorIDs := make([]uint, 0, len(rows))
	for _, r := range rows {
		authorIDs = append(authorIDs, r.UserID)
	}
	names := map[uint]string{}
	if len(authorIDs) > 0 {
		var users []models.User
		if err := db.Select("id", "name").Where("id IN ?", authorIDs).Find(&users).Error; err != nil {
			return nil, errors.Wrap(err, "loading comment authors")
		}
		for _, u := range users {
			names[u.ID] = u.Name
		}
	}

	return BuildTree(rows, names), nil
}

// BuildTree assembles comments into trees. rows must be ordered by id so a
// parent is always seen before its replies; replies to missing parents are dropped.
func BuildTree(rows []models.Comment, names map[uint]string) []*Node {
	arena := make(map[uint]*Node, len(rows))
	roots := []*Node{}
	for _, r := range rows {
		n := &Node{
			ID:         r.ID,
			UserID:     r.UserID,
			AuthorName: names[r.UserID],
			ParentID:   r.ParentID,
			Body:       r.Body,
			CreatedAt:  r.CreatedAt,
			Replies:    []*Node{},
		}
		arena[r.ID] = n
		if r.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if parent, ok := arena[*r.ParentID]; ok {
			parent.Replies = append(parent.Replies, n)
		}
	}
	return roots
}

// Delete removes a comment and every reply beneath it. Authors, admins and the
// course instructor may delete.
func (s *Service) Delete(ctx context.Context, actor services.Actor, commentID uint) (int, error) {
	var removed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := tx.First(&root, commentID).Error; err != nil {
			return services.Lookup(err, "comment")
		}
		if root.UserID != actor.UserID && !actor.Is(models.RoleAdmin) {
			var course courseModels.Course
			if err := tx.Select("id", "instructor_id").First(&course, root.CourseID).Error; err != nil {
				return services.Lookup(err, "course")
			}
			if course.InstructorID != actor.UserID {
				return errors.Wrap(services.ErrUnauthorized, "only the author can delete this comment")
			}
		}

		var rows []models.Comment
		if err := tx.Select("id", "parent_id").Where("lecture_id = ?", root.LectureID).Find(&rows).Error; err != nil {
			return errors.Wrap(err, "loading thread")
		}
		ids := Subtree(rows, root.ID)

		res := tx.Unscoped().Where("id IN ?", ids).Delete(&models.Comment{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "deleting comments")
		}
		removed = int(res.RowsAffected)
		return nil
	})
	return removed, err
}

// Subtree returns rootID and the ids of all its descendants, walking with an
// explicit stack.
func Subtree(rows []models.Comment, rootID uint) []uint {
	children := make(map[uint][]uint, len(rows))
	for _, r := range rows {
		if r.ParentID != nil {
			children[*r.ParentID] = append(children[*r.ParentID], r.ID)
		}
	}

	ids := []uint{}
	seen := map[uint]bool{}
	stack := []uint{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		stack = append(stack, children[id]...)
	}
	return ids
}

package comment_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
	"studysync/services/comment"
	"studysync/testutil"
)

func uintPtr(v uint) *uint { return &v }

func TestSubtree(t *testing.T) {
	rows := []models.Comment{
		{Model: gorm.Model{ID: 1}},
		{Model: gorm.Model{ID: 2}, ParentID: uintPtr(1)},
		{Model: gorm.Model{ID: 3}, ParentID: uintPtr(2)},
		{Model: gorm.Model{ID: 4}, ParentID: uintPtr(3)},
		{Model: gorm.Model{ID: 5}, ParentID: uintPtr(1)},
		{Model: gorm.Model{ID: 6}},
		{Model: gorm.Model{ID: 7}, ParentID: uintPtr(6)},
	}

	assert.ElementsMatch(t, []uint{1, 2, 3, 4, 5}, comment.Subtree(rows, 1))
	assert.ElementsMatch(t, []uint{3, 4}, comment.Subtree(rows, 3))
	assert.ElementsMatch(t, []uint{7}, comment.Subtree(rows, 7))
}

func TestBuildTree(t *testing.T) {
	rows := []models.Comment{
		{Model: gorm.Model{ID: 1}, UserID: 10, Body: "question"},
		{Model: gorm.Model{ID: 2}, UserID: 11, ParentID: uintPtr(1), Body: "answer"},
		{Model: gorm.Model{ID: 3}, UserID: 10, ParentID: uintPtr(2), Body: "thanks"},
		{Model: gorm.Model{ID: 4}, UserID: 11, Body: "another"},
		{Model: gorm.Model{ID: 5}, UserID: 11, ParentID: uintPtr(99), Body: "orphan"},
	}

	roots := comment.BuildTree(rows, map[uint]string{10: "Asha", 11: "Ravi"})
	require.Len(t, roots, 2)
	assert.Equal(t, "Asha", roots[0].AuthorName)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, "Ravi", roots[0].Replies[0].AuthorName)
	require.Len(t, roots[0].Replies[0].Replies, 1)
	assert.Equal(t, "thanks", roots[0].Replies[0].Replies[0].Body)
	assert.Empty(t, roots[1].Replies)
}

type fixture struct {
	db         *gorm.DB
	svc        *comment.Service
	student    services.Actor
	instructor services.Actor
	course     *courseModels.Course
	lectures   []*courseModels.Lecture
}

func setup(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	student := testutil.Student(t, db)
	instructor := testutil.Instructor(t, db)
	course := testutil.CreateCourse(t, db, instructor.ID)
	require.NoError(t, db.Create(&courseModels.Enrollment{UserID: student.ID, CourseID: course.ID}).Error)

	return &fixture{
		db:         db,
		svc:        comment.NewService(db),
		student:    services.Actor{UserID: student.ID, Roles: student.Roles},
		instructor: services.Actor{UserID: instructor.ID, Roles: instructor.Roles},
		course:     course,
		lectures: []*courseModels.Lecture{
			testutil.CreateLecture(t, db, course.ID, 1, 0),
			testutil.CreateLecture(t, db, course.ID, 2, 0),
		},
	}
}

func TestPostAndThread(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	root, err := f.svc.Post(ctx, f.student, f.course.ID, f.lectures[0].ID, nil, "How do channels close?")
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, f.instructor, f.course.ID, f.lectures[0].ID, &root.ID, "With close(ch).")
	require.NoError(t, err)

	thread, err := f.svc.Thread(ctx, f.student, f.course.ID, f.lectures[0].ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, "instructor", thread[0].Replies[0].AuthorName)
}

func TestReplyMustStayInLecture(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	root, err := f.svc.Post(ctx, f.student, f.course.ID, f.lectures[0].ID, nil, "first")
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, f.student, f.course.ID, f.lectures[1].ID, &root.ID, "wrong lecture")
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestOnlyParticipantsMayComment(t *testing.T) {
	f := setup(t)
	outsider := testutil.Student(t, f.db)

	_, err := f.svc.Post(context.Background(), services.Actor{UserID: outsider.ID, Roles: outsider.Roles},
		f.course.ID, f.lectures[0].ID, nil, "let me in")
	assert.True(t, errors.Is(err, services.ErrUnauthorized))

	_, err = f.svc.Post(context.Background(), f.student, f.course.ID, f.lectures[0].ID, nil, "   ")
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestDeleteRemovesReplies(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	root, err := f.svc.Post(ctx, f.student, f.course.ID, f.lectures[0].ID, nil, "root")
	require.NoError(t, err)
	reply, err := f.svc.Post(ctx, f.instructor, f.course.ID, f.lectures[0].ID, &root.ID, "reply")
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, f.student, f.course.ID, f.lectures[0].ID, &reply.ID, "nested")
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, f.student, f.course.ID, f.lectures[0].ID, nil, "unrelated")
	require.NoError(t, err)

	other := testutil.Student(t, f.db)
	_, err = f.svc.Delete(ctx, services.Actor{UserID: other.ID, Roles: other.Roles}, root.ID)
	assert.True(t, errors.Is(err, services.ErrUnauthorized))

	removed, err := f.svc.Delete(ctx, f.student, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Comment{}))
}

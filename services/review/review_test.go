package review_test

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
	"studysync/services/notification"
	"studysync/services/review"
	"studysync/testutil"
)

func draft(t *testing.T, db *gorm.DB, instructorID uint, withLecture bool) *courseModels.Course {
	t.Helper()
	c := testutil.CreateCourse(t, db, instructorID)
	require.NoError(t, db.Model(c).Update("status", courseModels.StatusDraft).Error)
	if withLecture {
		testutil.CreateLecture(t, db, c.ID, 1, 0)
	}
	return c
}

func actor(u *models.User) services.Actor {
	return services.Actor{UserID: u.ID, Roles: u.Roles}
}

func newService(db *gorm.DB) *review.Service {
	return review.NewService(db, notification.NewSyncDispatcher(db, notification.LogNotifier{}), notification.Templates{AppName: "Study Sync"})
}

func TestLeastLoadedAdminPicksFewestPending(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newService(db)
	busy := testutil.Admin(t, db)
	idle := testutil.Admin(t, db)
	instructor := testutil.Instructor(t, db)

	first, err := svc.Submit(context.Background(), actor(instructor), draft(t, db, instructor.ID, true).ID, review.ExplicitAdmin{AdminID: busy.ID})
	require.NoError(t, err)
	assert.Equal(t, busy.ID, *first.ReviewerID)

	second, err := svc.Submit(context.Background(), actor(instructor), draft(t, db, instructor.ID, true).ID, review.LeastLoadedAdmin{})
	require.NoError(t, err)
	assert.Equal(t, idle.ID, *second.ReviewerID)
	assert.Equal(t, courseModels.StatusPending, second.Status)

	// one pending each, the tie goes to the lowest id
	third, err := svc.Submit(context.Background(), actor(instructor), draft(t, db, instructor.ID, true).ID, review.PolicyFor(0))
	require.NoError(t, err)
	assert.Equal(t, busy.ID, *third.ReviewerID)
}

func TestSubmitRules(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newService(db)
	instructor := testutil.Instructor(t, db)
	ctx := context.Background()

	_, err := svc.Submit(ctx, actor(instructor), draft(t, db, instructor.ID, true).ID, review.LeastLoadedAdmin{})
	assert.True(t, errors.Is(err, services.ErrNotFound), "no admins yet")

	admin := testutil.Admin(t, db)

	_, err = svc.Submit(ctx, actor(instructor), draft(t, db, instructor.ID, false).ID, review.LeastLoadedAdmin{})
	assert.True(t, errors.Is(err, services.ErrValidation))

	_, err = svc.Submit(ctx, actor(instructor), draft(t, db, instructor.ID, true).ID, review.ExplicitAdmin{AdminID: instructor.ID})
	assert.True(t, errors.Is(err, services.ErrValidation))

	other := testutil.Instructor(t, db)
	_, err = svc.Submit(ctx, actor(other), draft(t, db, instructor.ID, true).ID, review.ExplicitAdmin{AdminID: admin.ID})
	assert.True(t, errors.Is(err, services.ErrUnauthorized))
}

func TestApproveAndReject(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newService(db)
	admin := testutil.Admin(t, db)
	otherAdmin := testutil.Admin(t, db)
	instructor := testutil.Instructor(t, db)
	ctx := context.Background()

	course := draft(t, db, instructor.ID, true)
	_, err := svc.Submit(ctx, actor(instructor), course.ID, review.ExplicitAdmin{AdminID: admin.ID})
	require.NoError(t, err)

	pending, err := svc.Pending(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.Approve(ctx, actor(otherAdmin), course.ID)
	assert.True(t, errors.Is(err, services.ErrUnauthorized))

	_, err = svc.Reject(ctx, actor(admin), course.ID, " ")
	assert.True(t, errors.Is(err, services.ErrValidation))

	rejected, err := svc.Reject(ctx, actor(admin), course.ID, "Add captions to every lecture")
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusRejected, rejected.Status)

	// a rejected course can be resubmitted
	_, err = svc.Submit(ctx, actor(instructor), course.ID, review.ExplicitAdmin{AdminID: admin.ID})
	require.NoError(t, err)
	approved, err := svc.Approve(ctx, actor(admin), course.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusPublished, approved.Status)

	_, err = svc.Approve(ctx, actor(admin), course.ID)
	assert.True(t, errors.Is(err, services.ErrConflict))
}

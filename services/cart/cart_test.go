package cart_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	courseModels "studysync/models/course"
	"studysync/services"
	"studysync/services/cart"
	"studysync/testutil"
)

func TestCart(t *testing.T) {
	db := testutil.NewDB(t)
	svc := cart.NewService(db)
	student := testutil.Student(t, db)
	instructor := testutil.Instructor(t, db)
	first := testutil.CreateCourse(t, db, instructor.ID)
	second := testutil.CreateCourse(t, db, instructor.ID)
	ctx := context.Background()

	c, err := svc.Add(ctx, student.ID, first.ID)
	require.NoError(t, err)
	c, err = svc.Add(ctx, student.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	c, err = svc.Add(ctx, student.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.True(t, c.Total.Equal(decimal.RequireFromString("998")), c.Total.String())

	c, err = svc.Remove(ctx, student.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, second.ID, c.Items[0].CourseID)

	_, err = svc.Add(ctx, instructor.ID, first.ID)
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestCartRejectsOwnedAndUnpublished(t *testing.T) {
	db := testutil.NewDB(t)
	svc := cart.NewService(db)
	student := testutil.Student(t, db)
	instructor := testutil.Instructor(t, db)
	course := testutil.CreateCourse(t, db, instructor.ID)
	ctx := context.Background()

	require.NoError(t, db.Create(&courseModels.Enrollment{UserID: student.ID, CourseID: course.ID}).Error)
	_, err := svc.Add(ctx, student.ID, course.ID)
	assert.True(t, errors.Is(err, services.ErrConflict))

	require.NoError(t, db.Model(course).Update("status", courseModels.StatusDraft).Error)
	_, err = svc.Add(ctx, student.ID, course.ID)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

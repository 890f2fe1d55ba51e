// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"studysync/database"
	"studysync/models"
	courseModels "studysync/models/course"
)

var dbSeq int64

// NewDB opens a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:studysync_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), atomic.AddInt64(&dbSeq, 1))
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, name string, roles models.Roles) *models.User {
	t.Helper()
	u := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s_%d@example.com", name, atomic.AddInt64(&dbSeq, 1)),
		Password: "x",
		Roles:    roles,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func Student(t *testing.T, db *gorm.DB) *models.User {
	return CreateUser(t, db, "student", models.Roles(models.RoleStudent))
}

func Instructor(t *testing.T, db *gorm.DB) *models.User {
	return CreateUser(t, db, "instructor", models.Roles(models.RoleInstructor))
}

func Admin(t *testing.T, db *gorm.DB) *models.User {
	return CreateUser(t, db, "admin", models.Roles(models.RoleAdmin))
}

// CreateCourse creates a published course priced at 499.00 that requires full completion.
func CreateCourse(t *testing.T, db *gorm.DB, instructorID uint) *courseModels.Course {
	t.Helper()
	c := &courseModels.Course{
		Title:                        "Go Concurrency",
		Description:                  "Channels and friends",
		Category:                     "programming",
		Price:                        decimal.RequireFromString("499.00"),
		InstructorID:                 instructorID,
		Status:                       courseModels.StatusPublished,
		RequiredCompletionPercentage: 100,
		ThumbnailAssetID:             "thumb-asset",
		PreviewVideoAssetID:          "preview-asset",
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateLecture adds a lecture whose MCQs have the given correct options.
// Every question offers options A, B and C.
func CreateLecture(t *testing.T, db *gorm.DB, courseID uint, order int, correct ...int) *courseModels.Lecture {
	t.Helper()
	l := &courseModels.Lecture{
		CourseID:               courseID,
		Title:                  fmt.Sprintf("Lecture %d", order),
		Order:                  order,
		Duration:               600,
		VideoAssetID:           fmt.Sprintf("video-%d-%d", courseID, order),
		RequiredPassPercentage: 60,
	}
	require.NoError(t, db.Create(l).Error)
	for i, opt := range correct {
		m := &courseModels.MCQ{
			LectureID:     &l.ID,
			Question:      fmt.Sprintf("Question %d", i+1),
			Options:       datatypes.JSONSlice[string]{"A", "B", "C"},
			CorrectOption: opt,
			Position:      i,
		}
		require.NoError(t, db.Create(m).Error)
	}
	return l
}

// CreateFinalQuiz adds a final quiz with a 70% pass mark.
func CreateFinalQuiz(t *testing.T, db *gorm.DB, courseID uint, correct ...int) *courseModels.FinalQuiz {
	t.Helper()
	q := &courseModels.FinalQuiz{CourseID: courseID, Title: "Final", PassingPercentage: 70}
	require.NoError(t, db.Create(q).Error)
	for i, opt := range correct {
		m := &courseModels.MCQ{
			FinalQuizID:   &q.ID,
			Question:      fmt.Sprintf("Final question %d", i+1),
			Options:       datatypes.JSONSlice[string]{"A", "B", "C"},
			CorrectOption: opt,
			Position:      i,
		}
		require.NoError(t, db.Create(m).Error)
	}
	return q
}

func Count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

package routers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studysync/config"
	"studysync/routers"
	"studysync/services/cart"
	"studysync/services/catalog"
	"studysync/services/certificate"
	"studysync/services/comment"
	"studysync/services/media"
	"studysync/services/notification"
	"studysync/services/payment"
	"studysync/services/progress"
	"studysync/services/review"
	"studysync/testutil"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	app, _ := newAppWithDB(t)
	return app
}

func newAppWithDB(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: "router-test-key", SaltRound: 4}

	db := testutil.NewDB(t)
	store := media.NewLocalStore(t.TempDir(), "/uploads")
	dispatcher := notification.NewSyncDispatcher(db, notification.LogNotifier{})
	templates := notification.Templates{AppName: "Study Sync", BaseURL: "http://localhost:3000"}
	issuer := certificate.NewIssuer(db, dispatcher, templates)

	instructor := testutil.Instructor(t, db)
	testutil.CreateCourse(t, db, instructor.ID)

	app := routers.New(routers.Deps{
		DB:           db,
		Payments:     payment.NewService(db, nil, dispatcher, payment.Options{Currency: "INR", InstructorSharePercent: 70, Templates: templates}),
		Tracker:      progress.NewTracker(db, issuer),
		Certificates: issuer,
		Catalog:      catalog.NewService(db, store, media.NewReleaser(db, store)),
		Reviews:      review.NewService(db, dispatcher, templates),
		Comments:     comment.NewService(db),
		Cart:         cart.NewService(db),
		AppName:      "Study Sync",
		Quiet:        true,
	})
	return app, db
}

func do(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	app := newApp(t)
	status, env := do(t, app, "GET", "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Status)
}

func TestSignupLoginAndMe(t *testing.T) {
	app := newApp(t)
	creds := map[string]interface{}{"name": "Asha", "email": "asha@example.com", "password": "longenough"}

	status, _ := do(t, app, "POST", "/auth/signup", "", creds)
	require.Equal(t, fiber.StatusCreated, status)

	status, env := do(t, app, "POST", "/auth/signup", "", creds)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.False(t, env.Status)

	status, _ = do(t, app, "POST", "/auth/login", "", map[string]string{"email": "asha@example.com", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env = do(t, app, "POST", "/auth/login", "", map[string]string{"email": "asha@example.com", "password": "longenough"})
	require.Equal(t, fiber.StatusOK, status)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	status, env = do(t, app, "GET", "/auth/me", login.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var me struct {
		PurchasedCourses int64 `json:"purchased_courses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Zero(t, me.PurchasedCourses)

	// students cannot author courses
	status, _ = do(t, app, "GET", "/instructor/courses", login.Token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestRepeatedFailedLoginsBlockAccount(t *testing.T) {
	app := newApp(t)
	creds := map[string]interface{}{"name": "Ravi", "email": "ravi@example.com", "password": "longenough"}
	status, _ := do(t, app, "POST", "/auth/signup", "", creds)
	require.Equal(t, fiber.StatusCreated, status)

	wrong := map[string]string{"email": "ravi@example.com", "password": "wrong-password"}
	for i := 0; i < 5; i++ {
		status, _ = do(t, app, "POST", "/auth/login", "", wrong)
		require.Equal(t, fiber.StatusUnauthorized, status)
	}

	status, env := do(t, app, "POST", "/auth/login", "", map[string]string{"email": "ravi@example.com", "password": "longenough"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, env.Message, "temporarily blocked")
}

func TestFailedLoginNotRecordedIsAnError(t *testing.T) {
	app, db := newAppWithDB(t)
	creds := map[string]interface{}{"name": "Meera", "email": "meera@example.com", "password": "longenough"}
	status, _ := do(t, app, "POST", "/auth/signup", "", creds)
	require.Equal(t, fiber.StatusCreated, status)

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:users_readonly", func(tx *gorm.DB) {
		if tx.Statement.Table == "users" {
			_ = tx.AddError(errors.New("users table is read only"))
		}
	}))

	status, env := do(t, app, "POST", "/auth/login", "", map[string]string{"email": "meera@example.com", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.False(t, env.Status)

	// a successful login still goes through when the bookkeeping write fails
	status, _ = do(t, app, "POST", "/auth/login", "", map[string]string{"email": "meera@example.com", "password": "longenough"})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestSignupValidation(t *testing.T) {
	app := newApp(t)
	status, env := do(t, app, "POST", "/auth/signup", "", map[string]string{"name": "A", "email": "nope"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), "email")
}

func TestPublicCatalogAndCertificates(t *testing.T) {
	app := newApp(t)

	status, env := do(t, app, "GET", "/course", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)

	status, _ = do(t, app, "GET", "/certificate/verify/not-an-id", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "GET", "/certificate/verify/SS-MISSING", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	app := newApp(t)
	for _, path := range []string{"/student/courses", "/user/cart", "/certificate/my", "/admin/reviews"} {
		status, _ := do(t, app, "GET", path, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status, path)
	}
}

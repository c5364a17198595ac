package middleware

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuthFixture(t *testing.T) (*gorm.DB, *auth.JWTManager) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "auth.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db, auth.NewJWTManager(auth.JWTConfig{Secret: "middleware-secret", Issuer: "test"})
}

func authApp(db *gorm.DB, jwtManager *auth.JWTManager, allow func(auth.Permissions) bool) *fiber.App {
	m := NewAuthMiddleware(jwtManager, db)
	app := fiber.New()
	handlers := []fiber.Handler{m.Required()}
	if allow != nil {
		handlers = append(handlers, m.RequirePermission(allow))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		id, _ := GetUserID(c)
		perms, _ := GetPermissions(c)
		return c.JSON(fiber.Map{"user_id": id, "role": perms.Role})
	})
	app.Get("/", handlers...)
	return app
}

func call(t *testing.T, app *fiber.App, header string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRequired(t *testing.T) {
	db, jwtManager := newAuthFixture(t)
	user := model.User{Email: "buyer@example.com", Name: "Buyer", Role: model.RoleUser}
	require.NoError(t, db.Create(&user).Error)

	valid, _, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, 0)
	require.NoError(t, err)
	stale, _, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, 7)
	require.NoError(t, err)
	ghost, _, err := jwtManager.GenerateAccessToken(9999, "ghost@example.com", model.RoleUser, 0)
	require.NoError(t, err)
	expired, _, err := auth.NewJWTManager(auth.JWTConfig{Secret: "middleware-secret", Issuer: "test", Expiry: -time.Minute}).
		GenerateAccessToken(user.ID, user.Email, user.Role, 0)
	require.NoError(t, err)
	otherIssuer, _, err := auth.NewJWTManager(auth.JWTConfig{Secret: "middleware-secret", Issuer: "elsewhere"}).
		GenerateAccessToken(user.ID, user.Email, user.Role, 0)
	require.NoError(t, err)

	app := authApp(db, jwtManager, nil)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + valid, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong issuer", "Bearer " + otherIssuer, fiber.StatusUnauthorized},
		{"unknown user", "Bearer " + ghost, fiber.StatusUnauthorized},
		{"stale token version", "Bearer " + stale, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, app, tt.header))
		})
	}
}

func TestRequirePermissionUsesStoredRole(t *testing.T) {
	db, jwtManager := newAuthFixture(t)
	user := model.User{Email: "teacher@example.com", Name: "Teacher", Role: model.RoleUser}
	require.NoError(t, db.Create(&user).Error)

	// The token claims admin but the stored role decides
	token, _, err := jwtManager.GenerateAccessToken(user.ID, user.Email, model.RoleAdmin, 0)
	require.NoError(t, err)

	app := authApp(db, jwtManager, func(p auth.Permissions) bool { return p.CanViewEarnings })
	assert.Equal(t, fiber.StatusForbidden, call(t, app, "Bearer "+token))

	require.NoError(t, db.Model(&user).Update("role", model.RoleTeacher).Error)
	assert.Equal(t, fiber.StatusOK, call(t, app, "Bearer "+token))
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/barber-marketplace/internal/auth"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

// openTestDB gives each test its own in-memory database. One connection
// keeps every query on the same memory instance.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.BarberProfile{},
		&models.Review{},
		&models.Booking{},
	))
	return db
}

// createUser hashes password and inserts u. is_active has a column default,
// so inactive users are flipped after insert.
func createUser(t *testing.T, db *gorm.DB, u models.User, password string) models.User {
	t.Helper()

	if u.Email == "" {
		u.Email = fmt.Sprintf("user%d@example.com", u.ID)
	}
	if u.FirstName == "" {
		u.FirstName, u.LastName = "Test", "User"
	}
	if password == "" {
		password = "password123"
	}
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u.PasswordHash = hash

	active := u.IsActive
	require.NoError(t, db.Create(&u).Error)
	if !active {
		require.NoError(t, db.Model(&u).Update("is_active", false).Error)
		u.IsActive = false
	}
	return u
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body httperr.HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Code
}

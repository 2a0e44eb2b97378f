package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

func TestGetUserByID_HidesInactive(t *testing.T) {
	db := openTestDB(t)
	createUser(t, db, models.User{ID: 1, Email: "ana@example.com", FirstName: "Ana", LastName: "Lima", IsActive: true}, "")
	createUser(t, db, models.User{ID: 2, Email: "gone@example.com"}, "")

	h := NewUserHandler(db, nil, zap.NewNop())
	r := gin.New()
	r.GET("/users/:id", asUser(identity.Caller{UserID: 1}), h.GetByID)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"inactive", "/users/2", http.StatusNotFound, "user_not_found"},
		{"missing", "/users/99", http.StatusNotFound, "user_not_found"},
		{"bad id", "/users/abc", http.StatusBadRequest, "invalid_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	w := doJSON(r, http.MethodGet, "/users/1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Ana", got.FirstName)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestDeactivateMe_ThenHidden(t *testing.T) {
	db := openTestDB(t)
	createUser(t, db, models.User{ID: 1, IsActive: true}, "")

	h := NewUserHandler(db, nil, zap.NewNop())
	r := gin.New()
	me := asUser(identity.Caller{UserID: 1})
	r.DELETE("/users/me", me, h.DeactivateMe)
	r.GET("/users/:id", me, h.GetByID)

	require.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/users/1", nil).Code)
	require.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/users/me", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/users/1", nil).Code)
}

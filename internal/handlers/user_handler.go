package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

type UserHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewUserHandler(db *gorm.DB, audit *audit.Dispatcher, log *zap.Logger) *UserHandler {
	return &UserHandler{db: db, audit: audit, log: log}
}

// Nil fields are left unchanged.
type UpdateUserRequest struct {
	FirstName       *string  `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName        *string  `json:"last_name" binding:"omitempty,min=1,max=100"`
	Phone           *string  `json:"phone" binding:"omitempty,max=20"`
	Bio             *string  `json:"bio"`
	ExperienceYears *int     `json:"experience_years" binding:"omitempty,gte=0"`
	HourlyRate      *float64 `json:"hourly_rate" binding:"omitempty,gte=0"`
	Address         *string  `json:"address" binding:"omitempty,max=500"`
	Latitude        *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude       *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
}

func (r UpdateUserRequest) changes() map[string]any {
	out := map[string]any{}
	if r.FirstName != nil {
		out["first_name"] = *r.FirstName
	}
	if r.LastName != nil {
		out["last_name"] = *r.LastName
	}
	if r.Phone != nil {
		out["phone"] = *r.Phone
	}
	if r.Bio != nil {
		out["bio"] = *r.Bio
	}
	if r.ExperienceYears != nil {
		out["experience_years"] = *r.ExperienceYears
	}
	if r.HourlyRate != nil {
		out["hourly_rate"] = *r.HourlyRate
	}
	if r.Address != nil {
		out["address"] = *r.Address
	}
	if r.Latitude != nil {
		out["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		out["longitude"] = *r.Longitude
	}
	return out
}

func (h *UserHandler) GetMe(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, caller.UserID).Error; err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	var user models.User
	db := h.db.WithContext(c.Request.Context())
	if err := db.First(&user, caller.UserID).Error; err != nil {
		h.fail(c, err)
		return
	}

	if changes := req.changes(); len(changes) > 0 {
		if err := db.Model(&user).Updates(changes).Error; err != nil {
			h.fail(c, err)
			return
		}
		if err := db.First(&user, caller.UserID).Error; err != nil {
			h.fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeactivateMe(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", caller.UserID).
		Update("is_active", false)
	if res.Error != nil {
		h.fail(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		httperr.FromError(c, h.log, httperr.ErrBusiness("user_not_found"))
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   &caller.UserID,
		Action:   "user_deactivated",
		Entity:   "user",
		EntityID: &caller.UserID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Account deactivated successfully"})
}

// GetByID is the public profile; inactive users are hidden.
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid user id")
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND is_active = ?", id, true).
		First(&user).Error; err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = httperr.ErrBusiness("user_not_found")
	}
	httperr.FromError(c, h.log, err)
}

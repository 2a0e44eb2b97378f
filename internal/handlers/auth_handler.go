package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-marketplace/internal/auth"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
	"github.com/BruksfildServices01/barber-marketplace/internal/validators"
)

type AuthHandler struct {
	db          *gorm.DB
	tokens      *auth.TokenService
	log         *zap.Logger
	emailDomain func(string) bool
}

// NewAuthHandler resolves email domains over DNS only when checkDomain is set.
func NewAuthHandler(db *gorm.DB, tokens *auth.TokenService, log *zap.Logger, checkDomain bool) *AuthHandler {
	h := &AuthHandler{db: db, tokens: tokens, log: log}
	if checkDomain {
		h.emailDomain = validators.EmailDomainResolves
	}
	return h
}

// --------- Requests ---------

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone"`
	IsBarber  bool   `json:"is_barber"`
}

// LoginRequest also binds the OAuth2 password form (username/password).
type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	email := validators.NormalizeEmail(req.Email)
	if h.emailDomain != nil && !h.emailDomain(email) {
		httperr.BadRequest(c, "invalid_email_domain", "Email domain does not appear to be valid.")
		return
	}

	var count int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	if count > 0 {
		httperr.FromError(c, h.log, httperr.ErrBusiness("email_taken"))
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		IsActive:     true,
		IsBarber:     req.IsBarber,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			err = httperr.ErrBusiness("email_taken")
		}
		httperr.FromError(c, h.log, err)
		return
	}

	h.log.Info("user registered", zap.Uint("user_id", user.ID), zap.Bool("is_barber", user.IsBarber))
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	email := validators.NormalizeEmail(req.Email)

	var user models.User
	err := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.Unauthorized(c, "invalid_credentials", "Incorrect email or password")
		return
	}
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		httperr.Unauthorized(c, "invalid_credentials", "Incorrect email or password")
		return
	}
	if !user.IsActive {
		httperr.BadRequest(c, "inactive_user", "Inactive user")
		return
	}

	h.issue(c, &user)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBind(&req)
	if req.RefreshToken == "" {
		req.RefreshToken = c.Query("refresh_token")
	}
	if req.RefreshToken == "" {
		httperr.BadRequest(c, "invalid_request", "refresh_token is required")
		return
	}

	claims, err := h.tokens.Parse(req.RefreshToken, auth.TypeRefresh)
	if err != nil {
		httperr.Unauthorized(c, "invalid_refresh_token", "Invalid refresh token")
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		httperr.Unauthorized(c, "invalid_refresh_token", "Invalid refresh token")
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil || !user.IsActive {
		httperr.Unauthorized(c, "user_inactive", "User not found or inactive")
		return
	}

	h.issue(c, &user)
}

// Logout is stateless; clients discard their tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthHandler) issue(c *gin.Context, user *models.User) {
	pair, err := h.tokens.Issue(user)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/httpresp"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

type BarberHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewBarberHandler(db *gorm.DB, audit *audit.Dispatcher, log *zap.Logger) *BarberHandler {
	return &BarberHandler{db: db, audit: audit, log: log}
}

// ======================================================
// REQUESTS
// ======================================================

type ServiceRequest struct {
	Name            string  `json:"name" binding:"required,max=200"`
	Price           float64 `json:"price" binding:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" binding:"gt=0,lte=1440"`
}

type ProfileRequest struct {
	ShopName     *string                    `json:"shop_name" binding:"omitempty,max=200"`
	Specialties  []string                   `json:"specialties"`
	Services     []ServiceRequest           `json:"services" binding:"omitempty,dive"`
	WorkingHours map[string]models.DayHours `json:"working_hours"`
	IsAvailable  *bool                      `json:"is_available"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// apply copies the fields present in the request onto p.
func (r ProfileRequest) apply(p *models.BarberProfile) error {
	if r.WorkingHours != nil {
		if err := domain.ValidateWorkingHours(r.WorkingHours); err != nil {
			return err
		}
		p.WorkingHours = r.WorkingHours
	}
	if r.ShopName != nil {
		p.ShopName = strings.TrimSpace(*r.ShopName)
	}
	if r.Specialties != nil {
		p.Specialties = r.Specialties
	}
	if r.Services != nil {
		services := make([]models.ServiceOffering, len(r.Services))
		for i, s := range r.Services {
			services[i] = models.ServiceOffering{
				Name:            strings.TrimSpace(s.Name),
				Price:           s.Price,
				DurationMinutes: s.DurationMinutes,
			}
		}
		p.Services = services
	}
	if r.IsAvailable != nil {
		p.IsAvailable = *r.IsAvailable
	}
	return nil
}

// ======================================================
// PROFILE
// ======================================================

func (h *BarberHandler) CreateProfile(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	profile := models.BarberProfile{UserID: caller.UserID, IsAvailable: true}
	if err := req.apply(&profile); err != nil {
		httperr.BadRequest(c, "invalid_working_hours", err.Error())
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var count int64
	if err := db.Model(&models.BarberProfile{}).Where("user_id = ?", caller.UserID).Count(&count).Error; err != nil {
		h.fail(c, err)
		return
	}
	if count > 0 {
		h.fail(c, httperr.ErrBusiness("profile_exists"))
		return
	}

	// A false is_available is a zero value and would be replaced by the column default.
	available := profile.IsAvailable
	if err := db.Omit("User").Create(&profile).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			err = httperr.ErrBusiness("profile_exists")
		}
		h.fail(c, err)
		return
	}
	if !available {
		if err := db.Model(&profile).Update("is_available", false).Error; err != nil {
			h.fail(c, err)
			return
		}
	}

	h.audit.Dispatch(audit.Event{
		UserID:   &caller.UserID,
		Action:   "barber_profile_created",
		Entity:   "barber_profile",
		EntityID: &profile.ID,
	})

	c.JSON(http.StatusCreated, profile)
}

func (h *BarberHandler) GetProfile(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var profile models.BarberProfile
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", caller.UserID).
		First(&profile).Error; err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *BarberHandler) UpdateProfile(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var profile models.BarberProfile
	if err := db.Where("user_id = ?", caller.UserID).First(&profile).Error; err != nil {
		h.fail(c, err)
		return
	}

	if err := req.apply(&profile); err != nil {
		httperr.BadRequest(c, "invalid_working_hours", err.Error())
		return
	}

	if err := db.Omit("User").Save(&profile).Error; err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ======================================================
// SEARCH
// ======================================================

const defaultRadiusKm = 10.0

func (h *BarberHandler) Search(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Model(&models.BarberProfile{}).
		Joins("JOIN users ON users.id = barber_profiles.user_id").
		Where("users.is_active = ? AND barber_profiles.is_available = ?", true, true)

	if service := strings.TrimSpace(c.Query("service")); service != "" {
		q = q.Where(
			"EXISTS (SELECT 1 FROM jsonb_array_elements(barber_profiles.services) s WHERE s->>'name' ILIKE ?)",
			"%"+service+"%",
		)
	}

	if v, ok, err := floatQuery(c, "min_rating"); err != nil {
		httperr.BadRequest(c, "invalid_query", "min_rating must be a number")
		return
	} else if ok {
		q = q.Where("barber_profiles.rating >= ?", v)
	}

	if v, ok, err := floatQuery(c, "max_price"); err != nil {
		httperr.BadRequest(c, "invalid_query", "max_price must be a number")
		return
	} else if ok {
		q = q.Where("users.hourly_rate <= ?", v)
	}

	lat, hasLat, errLat := floatQuery(c, "latitude")
	lng, hasLng, errLng := floatQuery(c, "longitude")
	radius, hasRadius, errRadius := floatQuery(c, "radius_km")
	if errLat != nil || errLng != nil || errRadius != nil {
		httperr.BadRequest(c, "invalid_query", "latitude, longitude and radius_km must be numbers")
		return
	}
	if !hasRadius {
		radius = defaultRadiusKm
	}

	var profiles []models.BarberProfile
	if err := q.Preload("User").Order("barber_profiles.rating DESC").Find(&profiles).Error; err != nil {
		h.fail(c, err)
		return
	}

	if hasLat && hasLng {
		nearby := profiles[:0]
		for _, p := range profiles {
			if p.User.Latitude == nil || p.User.Longitude == nil {
				continue
			}
			if distanceKm(lat, lng, *p.User.Latitude, *p.User.Longitude) <= radius {
				nearby = append(nearby, p)
			}
		}
		profiles = nearby
	}

	httpresp.List(c, profiles)
}

func floatQuery(c *gin.Context, key string) (float64, bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// distanceKm is the haversine great-circle distance.
func distanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func (h *BarberHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid barber id")
		return
	}

	var profile models.BarberProfile
	if err := h.db.WithContext(c.Request.Context()).First(&profile, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ======================================================
// REVIEWS
// ======================================================

func (h *BarberHandler) CreateReview(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	profileID, ok := parseIDParam(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid barber id")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	review := models.Review{
		BarberProfileID: profileID,
		CustomerID:      caller.UserID,
		Rating:          req.Rating,
		Comment:         req.Comment,
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		// Row lock keeps concurrent reviews from racing on the aggregate.
		var profile models.BarberProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&profile, profileID).Error; err != nil {
			return err
		}
		if profile.UserID == caller.UserID {
			return httperr.ErrBusiness("forbidden")
		}

		var count int64
		if err := tx.Model(&models.Review{}).
			Where("barber_profile_id = ? AND customer_id = ?", profileID, caller.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return httperr.ErrBusiness("already_reviewed")
		}

		if err := tx.Create(&review).Error; err != nil {
			if httperr.IsUniqueViolation(err) {
				return httperr.ErrBusiness("already_reviewed")
			}
			return err
		}

		var agg struct {
			Avg   float64
			Total int
		}
		if err := tx.Model(&models.Review{}).
			Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS total").
			Where("barber_profile_id = ?", profileID).
			Scan(&agg).Error; err != nil {
			return err
		}

		return tx.Model(&profile).Updates(map[string]any{
			"rating":        math.Round(agg.Avg*100) / 100,
			"total_reviews": agg.Total,
		}).Error
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   &caller.UserID,
		Action:   "review_created",
		Entity:   "barber_profile",
		EntityID: &profileID,
		Metadata: map[string]int{"rating": review.Rating},
	})

	c.JSON(http.StatusCreated, review)
}

func (h *BarberHandler) ListReviews(c *gin.Context) {
	profileID, ok := parseIDParam(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid barber id")
		return
	}

	var reviews []models.Review
	if err := h.db.WithContext(c.Request.Context()).
		Where("barber_profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		h.fail(c, err)
		return
	}

	httpresp.List(c, reviews)
}

func (h *BarberHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = httperr.ErrBusiness("profile_not_found")
	}
	httperr.FromError(c, h.log, err)
}

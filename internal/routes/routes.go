package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	"github.com/BruksfildServices01/barber-marketplace/internal/auth"
	"github.com/BruksfildServices01/barber-marketplace/internal/config"
	"github.com/BruksfildServices01/barber-marketplace/internal/handlers"
	"github.com/BruksfildServices01/barber-marketplace/internal/infra/lock"
	infraRepo "github.com/BruksfildServices01/barber-marketplace/internal/infra/repository"
	"github.com/BruksfildServices01/barber-marketplace/internal/metrics"
	"github.com/BruksfildServices01/barber-marketplace/internal/middleware"
	"github.com/BruksfildServices01/barber-marketplace/internal/payment"
	"github.com/BruksfildServices01/barber-marketplace/internal/timezone"
	ucBooking "github.com/BruksfildServices01/barber-marketplace/internal/usecase/booking"
	ucPayment "github.com/BruksfildServices01/barber-marketplace/internal/usecase/payment"
)

type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Log      *zap.Logger
	Locker   lock.Locker
	Gateway  payment.Gateway
	Audit    *audit.Dispatcher
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.RequestLogger(d.Log, d.Metrics))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	// ======================================================
	// INFRA
	// ======================================================
	bookingRepo := infraRepo.NewBookingGormRepository(d.DB)
	userRepo := infraRepo.NewUserGormRepository(d.DB)
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	loc := timezone.Location(cfg.Booking.Timezone)

	// ======================================================
	// USE CASES
	// ======================================================
	bookingHandler := handlers.NewBookingHandler(handlers.BookingHandlerDeps{
		Create:          ucBooking.NewCreateBooking(bookingRepo, d.Locker, d.Audit, d.Metrics, d.Log),
		Get:             ucBooking.NewGetBooking(bookingRepo),
		List:            ucBooking.NewListBookings(bookingRepo),
		ListBarber:      ucBooking.NewListBarberBookings(bookingRepo),
		UpdateStatus:    ucBooking.NewUpdateBookingStatus(bookingRepo, d.Audit),
		Cancel:          ucBooking.NewCancelBooking(bookingRepo, d.Audit, cfg.Booking.CancelNotice),
		Availability:    ucBooking.NewGetDailyAvailability(bookingRepo, loc),
		Location:        loc,
		DefaultDuration: cfg.Booking.DefaultMinutes,
	}, d.Log)

	paymentHandler := handlers.NewPaymentHandler(
		ucPayment.NewCreatePaymentIntent(bookingRepo, d.Gateway, d.Audit, d.Log),
		ucPayment.NewConfirmPayment(bookingRepo, d.Gateway, d.Audit, d.Metrics, d.Log),
		ucPayment.NewHandleWebhook(bookingRepo, d.Gateway, d.Audit, d.Metrics, d.Log),
		ucPayment.NewRefundPayment(bookingRepo, d.Gateway, d.Audit, d.Metrics, d.Log),
		d.Log,
	)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(d.DB, tokens, d.Log, cfg.IsProduction())
	userHandler := handlers.NewUserHandler(d.DB, d.Audit, d.Log)
	barberHandler := handlers.NewBarberHandler(d.DB, d.Audit, d.Log)

	authed := middleware.AuthMiddleware(tokens, userRepo)
	barberOnly := middleware.RequireBarber()

	// ======================================================
	// API
	// ======================================================
	api := r.Group("/api/v1")
	{
		authAPI := api.Group("/auth")
		{
			authAPI.POST("/register", authHandler.Register)
			authAPI.POST("/login", authHandler.Login)
			authAPI.POST("/refresh", authHandler.Refresh)
			authAPI.POST("/logout", authHandler.Logout)
		}

		users := api.Group("/users", authed)
		{
			users.GET("/me", userHandler.GetMe)
			users.PUT("/me", userHandler.UpdateMe)
			users.DELETE("/me", userHandler.DeactivateMe)
			users.GET("/:id", userHandler.GetByID)
		}

		barbers := api.Group("/barbers")
		{
			barbers.POST("/profile", authed, barberOnly, barberHandler.CreateProfile)
			barbers.GET("/profile", authed, barberOnly, barberHandler.GetProfile)
			barbers.PUT("/profile", authed, barberOnly, barberHandler.UpdateProfile)
			barbers.GET("/search", barberHandler.Search)
			barbers.GET("/:id", barberHandler.GetByID)
			barbers.POST("/:id/reviews", authed, barberHandler.CreateReview)
			barbers.GET("/:id/reviews", barberHandler.ListReviews)
		}

		bookings := api.Group("/bookings")
		{
			bookings.GET("/barber/:barber_id/availability", authed, bookingHandler.Availability)
			bookings.GET("/barber/:barber_id/bookings", authed, barberOnly, bookingHandler.BarberBookings)

			bookings.POST("", authed, bookingHandler.Create)
			bookings.GET("", authed, bookingHandler.List)
			bookings.GET("/:id", authed, bookingHandler.Get)
			bookings.PUT("/:id/status", authed, barberOnly, bookingHandler.UpdateStatus)
			bookings.DELETE("/:id", authed, bookingHandler.Cancel)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/webhook", paymentHandler.Webhook)
			payments.POST("/create-payment-intent", authed, paymentHandler.CreateIntent)
			payments.POST("/confirm-payment", authed, paymentHandler.Confirm)
			payments.POST("/:booking_id/refund", authed, barberOnly, paymentHandler.Refund)
		}
	}
}

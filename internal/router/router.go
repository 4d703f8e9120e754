package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/mediconnect/mediconnect-api/internal/handler/analytics"
	"github.com/mediconnect/mediconnect-api/internal/handler/appointment"
	"github.com/mediconnect/mediconnect-api/internal/handler/auth"
	"github.com/mediconnect/mediconnect-api/internal/handler/doctor"
	"github.com/mediconnect/mediconnect-api/internal/handler/health"
	"github.com/mediconnect/mediconnect-api/internal/handler/notification"
	"github.com/mediconnect/mediconnect-api/internal/handler/pharmacy"
	"github.com/mediconnect/mediconnect-api/internal/handler/prescription"
	"github.com/mediconnect/mediconnect-api/internal/middleware"
	"github.com/mediconnect/mediconnect-api/internal/schedule"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
)

// RegisterValidators installs the custom binding rules. "clock" accepts
// both 24-hour and 12-hour time labels.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := schedule.Parse(fl.Field().String())
			return err == nil
		})
	}
}

type Handlers struct {
	Health       *health.Handler
	Auth         *auth.Handler
	Appointment  *appointment.Handler
	Doctor       *doctor.Handler
	Prescription *prescription.Handler
	Pharmacy     *pharmacy.Handler
	Notification *notification.Handler
	Analytics    *analytics.Handler
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
}

// New assembles the HTTP surface. Availability browsing and the doctor
// directory stay public; everything else sits behind the JWT gate that
// each handler wires per route.
func New(cfg Config, handlers *Handlers, authMW *middleware.AuthMiddleware, log *logger.Logger) *gin.Engine {
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())
	r.Use(middleware.HTTPMetrics())
	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		})
		r.Use(limiter.RateLimit())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	root := r.Group("/")
	handlers.Health.RegisterRoutes(root)

	v1 := r.Group("/api/v1")
	handlers.Auth.RegisterRoutes(v1.Group("/auth"))
	handlers.Appointment.RegisterRoutes(v1, authMW)
	handlers.Doctor.RegisterRoutes(v1, authMW)
	handlers.Prescription.RegisterRoutes(v1, authMW)
	handlers.Pharmacy.RegisterRoutes(v1, authMW)
	handlers.Notification.RegisterRoutes(v1, authMW)
	handlers.Analytics.RegisterRoutes(v1, authMW)

	return r
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/mediconnect/mediconnect-api/internal/config"
	"github.com/mediconnect/mediconnect-api/internal/email"
	analyticshandler "github.com/mediconnect/mediconnect-api/internal/handler/analytics"
	appointmenthandler "github.com/mediconnect/mediconnect-api/internal/handler/appointment"
	authhandler "github.com/mediconnect/mediconnect-api/internal/handler/auth"
	doctorhandler "github.com/mediconnect/mediconnect-api/internal/handler/doctor"
	healthhandler "github.com/mediconnect/mediconnect-api/internal/handler/health"
	notificationhandler "github.com/mediconnect/mediconnect-api/internal/handler/notification"
	pharmacyhandler "github.com/mediconnect/mediconnect-api/internal/handler/pharmacy"
	prescriptionhandler "github.com/mediconnect/mediconnect-api/internal/handler/prescription"
	"github.com/mediconnect/mediconnect-api/internal/middleware"
	"github.com/mediconnect/mediconnect-api/internal/repository/postgres"
	"github.com/mediconnect/mediconnect-api/internal/router"
	analyticssvc "github.com/mediconnect/mediconnect-api/internal/service/analytics"
	appointmentsvc "github.com/mediconnect/mediconnect-api/internal/service/appointment"
	authsvc "github.com/mediconnect/mediconnect-api/internal/service/auth"
	doctorsvc "github.com/mediconnect/mediconnect-api/internal/service/doctor"
	medicinesvc "github.com/mediconnect/mediconnect-api/internal/service/medicine"
	notificationsvc "github.com/mediconnect/mediconnect-api/internal/service/notification"
	ordersvc "github.com/mediconnect/mediconnect-api/internal/service/order"
	prescriptionsvc "github.com/mediconnect/mediconnect-api/internal/service/prescription"
	"github.com/mediconnect/mediconnect-api/pkg/auth"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
	"github.com/mediconnect/mediconnect-api/pkg/messaging/redis"
	"github.com/mediconnect/mediconnect-api/pkg/metrics"
	"github.com/mediconnect/mediconnect-api/pkg/security"
	"github.com/mediconnect/mediconnect-api/pkg/worker"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:  parseLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &zl)
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.New("mediconnect")

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	doctorRepo := postgres.NewDoctorRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	prescriptionRepo := postgres.NewPrescriptionRepository(base)
	medicineRepo := postgres.NewMedicineRepository(base)
	orderRepo := postgres.NewOrderRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)
	analyticsRepo := postgres.NewAnalyticsRepository(base)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        cfg.JWT.Expiry(),
		RefreshExpiry: cfg.JWT.RefreshExpiry(),
	})
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	authService := authsvc.NewService(userRepo, doctorRepo, outboxRepo, jwtSvc, hasher, log)
	doctorService := doctorsvc.NewService(doctorRepo, log)
	appointmentService := appointmentsvc.NewService(appointmentRepo, doctorRepo, userRepo, log)
	prescriptionService := prescriptionsvc.NewService(prescriptionRepo, userRepo, log)
	medicineService := medicinesvc.NewService(medicineRepo, log)
	orderService := ordersvc.NewService(orderRepo, medicineRepo, userRepo, prescriptionService, log)
	notificationService := notificationsvc.NewService(notificationRepo, email.NewSMTPSender(cfg.SMTP), m, log)
	analyticsService := analyticssvc.NewService(analyticsRepo)

	authMW := middleware.NewAuthMiddleware(jwtSvc)

	handlers := &router.Handlers{
		Health:       healthhandler.NewHandler(db),
		Auth:         authhandler.NewHandler(authService),
		Appointment:  appointmenthandler.NewHandler(appointmentService, m),
		Doctor:       doctorhandler.NewHandler(doctorService),
		Prescription: prescriptionhandler.NewHandler(prescriptionService),
		Pharmacy:     pharmacyhandler.NewHandler(medicineService, orderService),
		Notification: notificationhandler.NewHandler(notificationService),
		Analytics:    analyticshandler.NewHandler(analyticsService),
	}

	engine := router.New(router.Config{
		RateLimit: rate.Limit(cfg.Server.RateLimit),
		RateBurst: cfg.Server.RateBurst,
	}, handlers, authMW, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
		MaxRetries:   cfg.Outbox.MaxRetries,
		Retention:    time.Duration(cfg.Outbox.RetentionDays) * 24 * time.Hour,
	}, log, m)
	go processor.Start(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info("starting api server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "graceful shutdown failed")
	}
}

func parseLevel(level string) logger.Level {
	switch level {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/smiledesk/admin-api/internal/config"
	"github.com/smiledesk/admin-api/internal/handler"
	appointmentHandler "github.com/smiledesk/admin-api/internal/handler/appointment"
	authHandler "github.com/smiledesk/admin-api/internal/handler/auth"
	billingHandler "github.com/smiledesk/admin-api/internal/handler/billing"
	bookingHandler "github.com/smiledesk/admin-api/internal/handler/booking"
	catalogHandler "github.com/smiledesk/admin-api/internal/handler/catalog"
	clinicHandler "github.com/smiledesk/admin-api/internal/handler/clinic"
	patientHandler "github.com/smiledesk/admin-api/internal/handler/patient"
	prometheusHandler "github.com/smiledesk/admin-api/internal/handler/prometheus"
	"github.com/smiledesk/admin-api/internal/middleware"
	"github.com/smiledesk/admin-api/internal/notification"
	"github.com/smiledesk/admin-api/internal/repository/postgres"
	"github.com/smiledesk/admin-api/internal/router"
	accessService "github.com/smiledesk/admin-api/internal/service/access"
	appointmentService "github.com/smiledesk/admin-api/internal/service/appointment"
	authService "github.com/smiledesk/admin-api/internal/service/auth"
	availabilityService "github.com/smiledesk/admin-api/internal/service/availability"
	bookingService "github.com/smiledesk/admin-api/internal/service/booking"
	catalogService "github.com/smiledesk/admin-api/internal/service/catalog"
	clinicService "github.com/smiledesk/admin-api/internal/service/clinic"
	eventService "github.com/smiledesk/admin-api/internal/service/event"
	patientService "github.com/smiledesk/admin-api/internal/service/patient"
	"github.com/smiledesk/admin-api/pkg/auth"
	"github.com/smiledesk/admin-api/pkg/logger"
	"github.com/smiledesk/admin-api/pkg/metrics"
	"github.com/smiledesk/admin-api/pkg/security"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	// Repositories
	ownerRepo := postgres.NewOwnerRepository(db)
	clinicRepo := postgres.NewClinicRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	aptRepo := postgres.NewAppointmentRepository(db)
	subRepo := postgres.NewSubscriptionRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Notifications: SMTP when enabled, otherwise a no-op sender.
	notifier := notification.NewNoop()
	if cfg.Notification.Enabled {
		notifier = notification.NewSMTP(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log)
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	hasher := security.NewBcryptHasher(0)
	eventSvc := eventService.NewService(outboxRepo)
	authSvc := authService.NewService(ownerRepo, clinicRepo, hasher, jwtSvc)
	accessSvc := accessService.NewService(ownerRepo, subRepo, clinicRepo, serviceRepo)
	clinicSvc := clinicService.NewService(clinicRepo)
	catalogSvc := catalogService.NewService(serviceRepo, accessSvc)
	patientSvc := patientService.NewService(patientRepo)
	availabilitySvc := availabilityService.NewService(clinicRepo, serviceRepo, aptRepo)
	bookingSvc := bookingService.NewService(clinicRepo, serviceRepo, patientRepo, aptRepo, eventSvc, notifier, log)
	appointmentSvc := appointmentService.NewService(aptRepo, clinicRepo, serviceRepo, patientRepo, eventSvc, notifier, log)

	// Middleware and handlers
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	accessMw := middleware.NewAccessMiddleware(accessSvc)
	m := metrics.NewMetrics("smiledesk")

	r := router.NewRouter(
		authMw,
		accessMw,
		authHandler.NewHandler(authSvc),
		clinicHandler.NewHandler(clinicSvc),
		catalogHandler.NewHandler(catalogSvc),
		patientHandler.NewHandler(patientSvc),
		appointmentHandler.NewHandler(appointmentSvc, bookingSvc, m),
		bookingHandler.NewHandler(clinicSvc, catalogSvc, availabilitySvc, bookingSvc, m),
		billingHandler.NewHandler(subRepo, accessSvc, eventSvc, cfg.Billing.WebhookSecret, log),
		handler.NewHealthHandler(db),
		prometheusHandler.New(),
		log,
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:  cfg.RateLimit.Burst,
			Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited")
}

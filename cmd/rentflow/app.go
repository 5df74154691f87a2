package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/auth"
	"github.com/nurpe/rentflow/internal/config"
	"github.com/nurpe/rentflow/internal/db"
	"github.com/nurpe/rentflow/internal/excel"
	"github.com/nurpe/rentflow/internal/gateway"
	httphandler "github.com/nurpe/rentflow/internal/http"
	"github.com/nurpe/rentflow/internal/http/middleware"
	"github.com/nurpe/rentflow/internal/logger"
	"github.com/nurpe/rentflow/internal/pdf"
	"github.com/nurpe/rentflow/internal/processor"
	"github.com/nurpe/rentflow/internal/queue"
	"github.com/nurpe/rentflow/internal/repository"
	"github.com/nurpe/rentflow/internal/service"
	"github.com/nurpe/rentflow/internal/storage"
)

type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	db     *gorm.DB
	broker queue.Broker
	client *queue.Client
	worker *queue.Worker
	files  http.FileSystem
	stats  *jobStats

	repos struct {
		users         *repository.UserRepository
		properties    *repository.PropertyRepository
		rentals       *repository.RentalRepository
		agreements    *repository.AgreementRepository
		payments      *repository.PaymentRepository
		notifications *repository.NotificationRepository
		reviews       *repository.ReviewRepository
	}
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: database, stats: newJobStats()}
	a.repos.users = repository.NewUserRepository(database)
	a.repos.properties = repository.NewPropertyRepository(database)
	a.repos.rentals = repository.NewRentalRepository(database)
	a.repos.agreements = repository.NewAgreementRepository(database)
	a.repos.payments = repository.NewPaymentRepository(database)
	a.repos.notifications = repository.NewNotificationRepository(database)
	a.repos.reviews = repository.NewReviewRepository(database)

	switch cfg.Queue.Backend {
	case config.QueueBackendMemory:
		a.broker = queue.NewMemoryBroker()
	default:
		a.broker = queue.NewGormBroker(database, queue.GormOptions{
			RetryDelay:   cfg.Queue.RetryDelay,
			ClaimTimeout: cfg.Queue.ClaimTimeout,
		})
	}
	a.client = queue.NewClient(a.broker, cfg.Queue.MaxAttempts)

	uploader, err := a.newUploader()
	if err != nil {
		return nil, err
	}
	a.worker = queue.NewWorker(a.broker, log.With().Str("component", "worker").Logger(), cfg.Queue.Workers, cfg.Queue.PollInterval)
	a.worker.OnOutcome(a.stats.record)

	processor.NewRentalProcessor(a.client, log).Register(a.worker)
	processor.NewNotificationProcessor(a.repos.notifications, log).Register(a.worker)
	processor.NewAgreementProcessor(
		a.repos.properties,
		a.repos.users,
		a.repos.agreements,
		pdf.NewGenerator(cfg.Stripe.Currency),
		uploader,
		a.client,
		log,
	).Register(a.worker)
	processor.NewPaymentsProcessor(a.repos.payments, log).Register(a.worker)

	return a, nil
}

func (a *app) newUploader() (storage.Uploader, error) {
	switch a.cfg.Storage.Backend {
	case config.StorageBackendLocal:
		local := storage.NewLocal(afero.NewOsFs(), a.cfg.Storage.LocalDir, a.cfg.Storage.PublicBaseURL)
		a.files = local.FileSystem()
		return local, nil
	default:
		uploader, err := storage.NewCloudinary(a.cfg.Storage.CloudinaryURL, a.cfg.Storage.Folder)
		if err != nil {
			return nil, fmt.Errorf("failed to init cloudinary: %w", err)
		}
		return uploader, nil
	}
}

func (a *app) router() *gin.Engine {
	stripe := gateway.NewStripe(gateway.StripeConfig{
		SecretKey:     a.cfg.Stripe.SecretKey,
		WebhookSecret: a.cfg.Stripe.WebhookSecret,
		Currency:      a.cfg.Stripe.Currency,
		SuccessURL:    a.cfg.Stripe.SuccessURL,
		CancelURL:     a.cfg.Stripe.CancelURL,
	})

	handler := httphandler.NewHandler(httphandler.Services{
		Users:      service.NewUserService(a.repos.users),
		Properties: service.NewPropertyService(a.repos.properties),
		Reviews:    service.NewReviewService(a.repos.reviews, a.repos.properties),
		Rentals:    service.NewRentalService(a.repos.rentals, a.repos.properties, a.client, a.log),
		Agreements: service.NewAgreementService(a.repos.agreements, a.repos.properties, a.repos.payments),
		Payments: service.NewPaymentService(
			a.repos.payments,
			a.repos.agreements,
			a.repos.properties,
			stripe,
			a.client,
			excel.NewGenerator(),
			a.log,
		),
		Notifications: service.NewNotificationService(a.repos.notifications),
	}, a.log)

	authMiddleware := middleware.Auth(auth.NewParser(a.cfg.Auth.AccessSecret))
	return httphandler.NewRouter(handler, authMiddleware, a.log, httphandler.RouterOptions{
		Environment:    a.cfg.Environment,
		AllowedOrigins: a.cfg.HTTP.CORSAllowedOrigins,
		Files:          a.files,
		Health:         a.health,
	})
}

func (a *app) health() gin.H {
	body := gin.H{"queue_backend": a.cfg.Queue.Backend, "processed": a.stats.snapshot()}
	if broker, ok := a.broker.(*queue.GormBroker); ok {
		counts, err := broker.Counts(context.Background())
		if err != nil {
			a.log.Warn().Err(err).Msg("count jobs failed")
		} else {
			body["jobs"] = counts
		}
	}
	return body
}

// jobStats counts worker outcomes by status for the health endpoint.
type jobStats struct {
	mu     sync.Mutex
	counts map[queue.Status]int
}

func newJobStats() *jobStats {
	return &jobStats{counts: make(map[queue.Status]int)}
}

func (s *jobStats) record(_ context.Context, _ queue.Job, outcome queue.Outcome) {
	s.mu.Lock()
	s.counts[outcome.Status]++
	s.mu.Unlock()
}

func (s *jobStats) snapshot() map[queue.Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[queue.Status]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

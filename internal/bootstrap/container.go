package bootstrap

import (
	"context"
	"log"
	"time"

	"plugin-billing-be/internal/config"
	"plugin-billing-be/internal/constant"
	"plugin-billing-be/internal/controller"
	"plugin-billing-be/internal/jobs"
	"plugin-billing-be/internal/pkg/logger"
	"plugin-billing-be/internal/pkg/mailer"
	"plugin-billing-be/internal/repository/memory"
	"plugin-billing-be/internal/repository/unitofwork"
	"plugin-billing-be/internal/service"

	pktNats "plugin-billing-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SubscriptionController controller.ISubscriptionController
	AccessController       controller.IAccessController
	PaymentController      controller.IPaymentController
	PlanController         controller.IPlanController

	// Background Services (exposed for main.go to run)
	ReactorService service.IBillingReactorService
	Scheduler      *jobs.Scheduler

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	accessCache := memory.NewAccessCache(time.Duration(cfg.Billing.AccessCacheTTLSeconds) * time.Second)

	// 3. Services
	publisherService := service.NewPublisherService(constant.BillingEventsTopic, pubSub)

	subscriptionService := service.NewSubscriptionService(
		uowFactory,
		publisherService,
		natsPub,
		accessCache,
		sysLogger,
	)
	accessService := service.NewAccessService(uowFactory, accessCache)
	paymentService := service.NewPaymentService(uowFactory, publisherService, cfg.Payment, sysLogger)
	planService := service.NewPlanService(uowFactory)
	overdueService := service.NewOverdueService(uowFactory, publisherService, sysLogger)

	reactorService := service.NewBillingReactorService(
		pubSub,
		constant.BillingEventsTopic,
		uowFactory,
		natsPub,
		emailService,
		accessCache,
		rdb,
		sysLogger,
	)

	scheduler, err := jobs.NewScheduler(subscriptionService, overdueService, cfg.Billing, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to create job scheduler: %v", err)
	}

	// 4. Controllers
	return &Container{
		SubscriptionController: controller.NewSubscriptionController(subscriptionService),
		AccessController:       controller.NewAccessController(accessService),
		PaymentController:      controller.NewPaymentController(paymentService),
		PlanController:         controller.NewPlanController(planService),

		ReactorService: reactorService,
		Scheduler:      scheduler,
		Logger:         sysLogger,
	}
}

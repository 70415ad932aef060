package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ise-alumni/portal-sub001/config"
	repository "github.com/ise-alumni/portal-sub001/internal/database/postgres"
	"github.com/ise-alumni/portal-sub001/internal/service"
	"github.com/ise-alumni/portal-sub001/internal/transport"
	"github.com/ise-alumni/portal-sub001/internal/worker"

	"github.com/ise-alumni/portal-sub001/pkg/mailer"
	"github.com/ise-alumni/portal-sub001/pkg/postgres"
	"github.com/ise-alumni/portal-sub001/pkg/queue"
	"github.com/ise-alumni/portal-sub001/pkg/redis"
	"github.com/ise-alumni/portal-sub001/pkg/scheduler"
	"github.com/ise-alumni/portal-sub001/pkg/timerule"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	reminderRepo := repository.NewReminderRepository(db)
	queueRepo := repository.NewEmailQueueRepository(db)
	unsubRepo := repository.NewUnsubscribeRepository(db)
	eventRepo := repository.NewEventRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize mail transport. The environment decides between the
	// production relay and the local inspection endpoint.
	mail := mailer.New(&cfg.Email, cfg.IsProduction())
	if cfg.IsProduction() && !mail.Configured() {
		logrus.Warn("Production relay credentials missing, outbound mail will fail")
	} else {
		logrus.Infof("Mail transport initialized (production=%v)", cfg.IsProduction())
	}

	var redisQueue queue.Queue
	var taskPublisher service.TaskPublisher

	if cfg.Redis.Host != "" {
		redisClient := redis.NewRedisClient(&cfg.Redis)

		rq, err := queue.NewRedisQueue(redisClient, queue.DefaultRedisQueueConfig())
		if err != nil {
			logrus.Errorf("Failed to initialize Redis queue: %v. Continuing without queue...", err)
			redisClient.Close()
		} else {
			logrus.Info("Redis queue initialized")
			redisQueue = rq
			defer redisQueue.Close()
			// Создаем адаптер для очереди
			taskPublisher = service.NewQueueAdapter(redisQueue)
		}
	}

	// Initialize services
	reminderService := service.NewReminderService(
		reminderRepo, eventRepo, announcementRepo, userRepo, unsubRepo,
		mail, taskPublisher,
		service.ReminderServiceConfig{
			Rules: timerule.Rules{
				EventLead:        cfg.Reminder.EventLead,
				AnnouncementLead: cfg.Reminder.AnnouncementLead,
			},
			BaseURL:   cfg.App.BaseURL,
			TokenTTL:  cfg.App.TokenTTL,
			BatchSize: cfg.Worker.BatchSize,
		},
	)
	queueService := service.NewQueueService(queueRepo, unsubRepo, mail, taskPublisher, cfg.Worker.BatchSize)
	unsubscribeService := service.NewUnsubscribeService(unsubRepo, queueRepo, cfg.App.TokenTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize task handler if queue is available
	if redisQueue != nil {
		taskHandler := worker.NewTaskHandler(reminderService, queueService)

		// Start queue consumer
		go func() {
			if err := redisQueue.Subscribe(ctx, taskHandler.HandleTask); err != nil {
				logrus.Errorf("Queue subscriber error: %v", err)
			}
		}()
		logrus.Info("Queue subscriber started")
	}

	// Initialize and start the due-reminder scheduler
	reminderScheduler := scheduler.NewScheduler(reminderService, cfg.Worker.ReminderInterval)
	go reminderScheduler.Start(ctx)
	logrus.Info("Reminder scheduler started")

	// Initialize email dispatch worker
	dispatchWorker := worker.NewDispatchWorker(queueService, cfg.Worker.DispatchInterval)
	go dispatchWorker.Start(ctx)
	logrus.Info("Email dispatch worker started")

	// Initialize handlers
	reminderHandler := transport.NewReminderHandler(reminderService)
	queueHandler := transport.NewQueueHandler(queueService)
	emailHandler := transport.NewEmailHandler(queueService)
	unsubscribeHandler := transport.NewUnsubscribeHandler(unsubscribeService)

	// Setup HTTP server
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(reminderHandler, queueHandler, emailHandler, unsubscribeHandler)); err != nil {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

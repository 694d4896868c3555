// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"loyalty-service/internal/config"
	"loyalty-service/internal/db"
	domainAuth "loyalty-service/internal/domain/auth"
	authHandler "loyalty-service/internal/handlers/auth"
	customerHandler "loyalty-service/internal/handlers/customer"
	feedbackHandler "loyalty-service/internal/handlers/feedback"
	notifyH "loyalty-service/internal/handlers/notification"
	promoHandler "loyalty-service/internal/handlers/promo"
	reportHandler "loyalty-service/internal/handlers/report"
	reservationHandler "loyalty-service/internal/handlers/reservation"
	transactionHandler "loyalty-service/internal/handlers/transaction"
	wsHandler "loyalty-service/internal/handlers/websocket"
	"loyalty-service/internal/metrics"
	"loyalty-service/internal/middleware"
	"loyalty-service/internal/pkg/jwt"
	"loyalty-service/internal/pkg/session"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/repository/boltdb"
	"loyalty-service/internal/repository/postgres"
	"loyalty-service/internal/seed"
	authUsecase "loyalty-service/internal/service/auth"
	customersvc "loyalty-service/internal/service/customer"
	feedbackUsecase "loyalty-service/internal/service/feedback"
	"loyalty-service/internal/service/ledger"
	notifyUsecase "loyalty-service/internal/service/notification"
	promoUsecase "loyalty-service/internal/service/promo"
	reportUsecase "loyalty-service/internal/service/report"
	reservationUsecase "loyalty-service/internal/service/reservation"
	"loyalty-service/internal/store"
	"loyalty-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	http   *http.Server

	notifications *notifyUsecase.NotificationService
	stopHub       context.CancelFunc
	closers       []func() error
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Start wires every component and serves HTTP until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	if err := s.setup(ctx); err != nil {
		return err
	}

	s.http = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setup(ctx context.Context) error {
	// ----- Storage -----
	backend, err := s.openBackend(ctx)
	if err != nil {
		return err
	}
	fixtures, err := seed.Default()
	if err != nil {
		return err
	}
	cols := repository.NewCollections(backend, fixtures)
	s.closers = append(s.closers, cols.Close)

	// ----- Redis (optional) -----
	var (
		limiter  authUsecase.OTPLimiter
		revoker  authUsecase.Revoker
		revoked  authUsecase.Revocations
		redisCli *redis.Client
	)
	if s.cfg.RedisAddr != "" {
		redisCli, err = db.NewRedisClient(db.RedisConfig{
			Addresses: []string{s.cfg.RedisAddr},
			Password:  s.cfg.RedisPass,
			PoolSize:  10,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		s.closers = append(s.closers, redisCli.Close)
		bl := session.NewBlacklist(redisCli)
		limiter, revoker, revoked = session.NewRateLimiter(redisCli), bl, bl
		s.logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))
	} else {
		s.logger.Warn("REDIS_ADDR not set, login rate limiting and logout revocation are disabled")
	}

	// ----- JWT Manager -----
	jwtManager, err := s.loadJWT()
	if err != nil {
		return err
	}

	// ----- Staff accounts -----
	staff, err := authUsecase.ParseStaffAccounts(s.cfg.StaffAccounts)
	if err != nil {
		return fmt.Errorf("invalid STAFF_ACCOUNTS: %w", err)
	}
	if len(staff) == 0 {
		admin, err := s.initializeDefaultAdmin()
		if err != nil {
			s.logger.Error("failed to initialize default admin", zap.Error(err))
		} else {
			staff = append(staff, admin)
		}
	}

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(authUsecase.Options{
		Verifier: authUsecase.ChainVerifier{
			authUsecase.NewTokenVerifier(jwtManager.Verifier, revoked),
			authUsecase.NewStaticVerifier(s.cfg.DemoTokens, s.cfg.SystemAPIToken),
		},
		Customers: cols.Customers,
		JWT:       jwtManager,
		Limiter:   limiter,
		Revoker:   revoker,
		OTP:       s.cfg.CustomerOTP,
		Staff:     staff,
		Logger:    s.logger,
	})

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(authService, s.logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Metrics -----
	m := metrics.New()

	// ----- Notifications -----
	var publisher notifyUsecase.Publisher
	if len(s.cfg.KafkaBrokers) > 0 {
		kp := notifyUsecase.NewKafkaPublisher(s.cfg.KafkaBrokers, s.cfg.KafkaTopic)
		s.closers = append(s.closers, kp.Close)
		publisher = kp
		s.logger.Info("kafka publisher enabled",
			zap.Strings("brokers", s.cfg.KafkaBrokers),
			zap.String("topic", s.cfg.KafkaTopic),
		)
	}
	notifService := notifyUsecase.NewNotificationService(notifyUsecase.Options{
		Store:       cols.Notifications,
		Delay:       s.cfg.NotifyDelay,
		Publisher:   publisher,
		Broadcaster: hub,
		Metrics:     m,
		Logger:      s.logger,
	})
	s.notifications = notifService

	rules, err := promoUsecase.NewRuleEngine()
	if err != nil {
		return err
	}
	loc := s.cfg.Location()

	customerService := customersvc.NewCustomerService(cols.Customers, notifService, s.logger)
	ledgerService := ledger.NewLedgerService(cols, s.cfg.PointsUnit, m, s.logger)
	promoService := promoUsecase.NewPromoService(promoUsecase.Options{
		Collections:    cols,
		Rules:          rules,
		RedemptionCost: s.cfg.RedemptionCost,
		TierPolicy:     promoUsecase.TierPolicy(s.cfg.TierMatch),
		Notifier:       notifService,
		Metrics:        m,
		Logger:         s.logger,
	})
	reservationService := reservationUsecase.NewReservationService(cols.Reservations, customerService, notifService, loc, s.logger)
	feedbackService := feedbackUsecase.NewFeedbackService(cols, s.logger)
	reportService := reportUsecase.NewReportService(cols, loc, s.logger)

	// ----- Seeding -----
	loader := seed.NewLoader(s.logger, cols.Seeders()...)
	if s.cfg.SeedOnStart {
		if err := loader.Ensure(ctx); err != nil {
			s.logger.Error("initial seeding failed, retrying on first request", zap.Error(err))
		}
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.MetricsMiddleware(m),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	// ----- Router -----
	SetupRouter(s.engine, s.logger, &Handlers{
		AuthHandler:        authHandler.NewAuthHandler(authService, s.logger),
		CustomerHandler:    customerHandler.NewCustomerHandler(customerService, ledgerService),
		TransactionHandler: transactionHandler.NewTransactionHandler(ledgerService, s.logger),
		PromoHandler:       promoHandler.NewPromoHandler(promoService),
		ReservationHandler: reservationHandler.NewReservationHandler(reservationService),
		FeedbackHandler:    feedbackHandler.NewFeedbackHandler(feedbackService),
		ReportHandler:      reportHandler.NewReportHandler(reportService),
		NotifHandler:       notifyH.NewNotificationHandler(notifService),
		WSHandler:          wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, s.logger),
		AuthMiddleware:     middleware.NewAuthMiddleware(authService),
		Seeder:             loader,
		Metrics:            m,
	})
	return nil
}

func (s *Server) openBackend(ctx context.Context) (store.Backend, error) {
	switch s.cfg.StoreDriver {
	case "", "memory":
		s.logger.Warn("using in-memory store, data is lost on restart")
		return store.NewMemoryBackend(), nil

	case "bolt":
		b, err := boltdb.Open(s.cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		s.logger.Info("bolt store opened", zap.String("path", s.cfg.BoltPath))
		return b, nil

	case "postgres":
		pool, err := db.ConnectDB(db.PostgresConfig{URL: s.cfg.DatabaseURL, MaxConns: 10})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		b := postgres.NewEntityBackend(postgres.NewDB(pool), s.cfg.DatabaseTable)
		if err := b.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		s.logger.Info("postgres store ready", zap.String("table", s.cfg.DatabaseTable))
		return b, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", s.cfg.StoreDriver)
}

func (s *Server) loadJWT() (*jwt.Manager, error) {
	if s.cfg.JWT.PrivPath != "" && s.cfg.JWT.PubPath != "" {
		m, err := jwt.LoadAndBuild(s.cfg.JWT)
		if err != nil {
			return nil, fmt.Errorf("failed to load JWT manager: %w", err)
		}
		return m, nil
	}
	if s.cfg.IsProduction() {
		return nil, errors.New("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH are required in production")
	}
	s.logger.Warn("JWT key paths not set, signing with an ephemeral key")
	return jwt.NewEphemeral(s.cfg.JWT)
}

// initializeDefaultAdmin builds the admin login used when STAFF_ACCOUNTS is empty.
func (s *Server) initializeDefaultAdmin() (domainAuth.StaffAccount, error) {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")

	if username == "" {
		username = "admin"
		s.logger.Warn("ADMIN_USERNAME not set, using default", zap.String("username", username))
	}
	if password == "" {
		if s.cfg.IsProduction() {
			return domainAuth.StaffAccount{}, errors.New("ADMIN_PASSWORD is required in production")
		}
		password = "HappyOwl58&"
		s.logger.Warn("ADMIN_PASSWORD not set, using default password")
	}

	return authUsecase.NewStaffAccount(username, domainAuth.RoleAdmin, password)
}

// Shutdown stops accepting requests, lets pending notification deliveries
// finish and releases storage and brokers.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.notifications != nil {
		done := make(chan struct{})
		go func() {
			s.notifications.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("shutdown deadline reached with notifications pending")
		}
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

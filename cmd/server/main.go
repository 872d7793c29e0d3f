package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/chi-demo/app"
	"github.com/ukhsc/ukhsc-system-backend/pkg/auth"
	authapi "github.com/ukhsc/ukhsc-system-backend/pkg/auth/api"
	"github.com/ukhsc/ukhsc-system-backend/pkg/client"
	"github.com/ukhsc/ukhsc-system-backend/pkg/config"
	"github.com/ukhsc/ukhsc-system-backend/pkg/device"
	deviceapi "github.com/ukhsc/ukhsc-system-backend/pkg/device/api"
	"github.com/ukhsc/ukhsc-system-backend/pkg/federated"
	"github.com/ukhsc/ukhsc-system-backend/pkg/member"
	memberapi "github.com/ukhsc/ukhsc-system-backend/pkg/member/api"
	"github.com/ukhsc/ukhsc-system-backend/pkg/metrics"
	"github.com/ukhsc/ukhsc-system-backend/pkg/notice"
	"github.com/ukhsc/ukhsc-system-backend/pkg/notification"
	"github.com/ukhsc/ukhsc-system-backend/pkg/order"
	orderapi "github.com/ukhsc/ukhsc-system-backend/pkg/order/api"
	"github.com/ukhsc/ukhsc-system-backend/pkg/router"
	"github.com/ukhsc/ukhsc-system-backend/pkg/school"
	schoolapi "github.com/ukhsc/ukhsc-system-backend/pkg/school/api"
	"github.com/ukhsc/ukhsc-system-backend/pkg/tokengenerator"
	"github.com/ukhsc/ukhsc-system-backend/pkg/validator"
)

type Services struct {
	authService   *auth.AuthService
	deviceService *device.DeviceService
	memberService *member.MemberService
	schoolService *school.SchoolService
	orderService  *order.OrderService
}

func main() {
	// Setup logger before config so .env loading is logged
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     cfg.SlogLevel(),
	})))
	slog.Info("Starting UKHSC system backend", "persistence", cfg.Persistence, "frontend", cfg.FrontendUrl)

	var pool *pgxpool.Pool
	if cfg.Persistence == "postgres" || cfg.Persistence == "postgresql" {
		pool, err = pgxpool.New(context.Background(), cfg.DatabaseConfig.ToDatabaseURL())
		if err != nil {
			slog.Error("Failed to connect to database",
				"host", cfg.DatabaseConfig.Host,
				"port", cfg.DatabaseConfig.Port,
				"database", cfg.DatabaseConfig.Database,
				"error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slog.Info("Database connected", "database", cfg.DatabaseConfig.Database, "schema", cfg.DatabaseConfig.Schema)
	} else {
		slog.Warn("Using in-memory persistence, data is lost on restart")
	}

	var redisClient *redis.Client
	if cfg.RedisConfig.Enabled() {
		opts, err := redis.ParseURL(cfg.RedisConfig.URL)
		if err != nil {
			slog.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("Redis connected, OAuth state is shared")
	}

	m := metrics.New()
	services, err := initializeServices(cfg, pool, redisClient, m)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	v := validator.New()
	authWindow, _ := cfg.RateLimitConfig.ParseAuthWindow()
	trustedProxies, _ := cfg.RateLimitConfig.ParseTrustedProxies()
	routerConfig := router.Config{
		AuthHandle:     authapi.NewAuthHandler(services.authService, v),
		DeviceHandle:   deviceapi.NewDeviceHandler(services.deviceService),
		MemberHandle:   memberapi.NewMemberHandler(services.memberService, v),
		SchoolHandle:   schoolapi.NewSchoolHandler(services.schoolService, v),
		OrderHandle:    orderapi.NewOrderHandler(services.orderService, v),
		JWTAuth:        client.NewJWTAuth(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer, cfg.JWTConfig.Audience),
		Metrics:        m,
		AllowedOrigins: []string{cfg.FrontendUrl},
		AuthRateLimit:  cfg.RateLimitConfig.AuthRequests,
		AuthRateWindow: authWindow,
		TrustedProxies: trustedProxies,
	}

	server := app.DefaultApp()
	router.SetupMiddleware(server.R, routerConfig)
	app.RegisterHealthzRoutes(server.R)
	router.SetupRoutes(server.R, routerConfig)

	slog.Info("UKHSC system backend ready", "host", cfg.AppConfig.Host, "port", cfg.AppConfig.Port)
	server.Run()
}

func initializeServices(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, m *metrics.Metrics) (*Services, error) {
	persistence := cfg.Persistence

	deviceRepo, err := device.NewDeviceRepository(persistence, device.RepositoryConfig{DB: pool})
	if err != nil {
		return nil, err
	}
	memberRepo, err := member.NewMemberRepository(persistence, member.RepositoryConfig{DB: pool})
	if err != nil {
		return nil, err
	}
	schoolRepo, err := school.NewSchoolRepository(persistence, school.RepositoryConfig{DB: pool})
	if err != nil {
		return nil, err
	}
	orderRepo, err := order.NewOrderRepository(persistence, order.RepositoryConfig{DB: pool})
	if err != nil {
		return nil, err
	}

	stateTTL, _ := cfg.GoogleConfig.ParseStateTTL()
	federatedConfig := federated.RepositoryConfig{DB: pool, Redis: redisClient, StateTTL: stateTTL}
	linkRepo, err := federated.NewLinkRepository(persistence, federatedConfig)
	if err != nil {
		return nil, err
	}
	stateStore := federated.NewStateStore(federatedConfig)

	accessExpiry, _ := cfg.JWTConfig.ParseAccessTokenExpiry()
	refreshExpiry, _ := cfg.JWTConfig.ParseRefreshTokenExpiry()
	onboardingExpiry, _ := cfg.JWTConfig.ParseOnboardingTokenExpiry()
	tokenService := tokengenerator.NewTokenService(
		tokengenerator.NewJwtTokenGenerator(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer, cfg.JWTConfig.Audience),
		tokengenerator.WithAccessTokenExpiry(accessExpiry),
		tokengenerator.WithRefreshTokenExpiry(refreshExpiry),
		tokengenerator.WithOnboardingTokenExpiry(onboardingExpiry),
	)

	if !cfg.GoogleConfig.Enabled() {
		slog.Warn("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set, Google sign-in will fail")
	}
	googleProvider := federated.NewGoogleProvider(
		cfg.GoogleConfig.ClientID,
		cfg.GoogleConfig.ClientSecret,
		cfg.GoogleConfig.RedirectURL,
	)

	deviceService := device.NewDeviceService(deviceRepo)
	memberService := member.NewMemberService(memberRepo)
	schoolService := school.NewSchoolService(schoolRepo)
	orderService := order.NewOrderService(orderRepo, memberService)
	authOpts := []auth.Option{
		auth.WithRecorder(m),
		auth.WithSchoolSuggester(schoolService),
		auth.WithFrontendURL(cfg.FrontendUrl),
	}
	if cfg.SMTPConfig.Enabled() {
		nm, err := notice.NewNotificationManager(cfg.FrontendUrl, notification.SMTPConfig{
			Host:     cfg.SMTPConfig.Host,
			Port:     cfg.SMTPConfig.Port,
			TLS:      cfg.SMTPConfig.TLS,
			Username: cfg.SMTPConfig.Username,
			Password: cfg.SMTPConfig.Password,
			From:     cfg.SMTPConfig.From,
		})
		if err != nil {
			return nil, err
		}
		authOpts = append(authOpts, auth.WithAlerter(notice.NewAlertService(nm, memberService)))
		slog.Info("Security notices enabled", "smtpHost", cfg.SMTPConfig.Host)
	} else {
		slog.Info("SMTP_HOST not set, security notices disabled")
	}
	authService := auth.NewAuthService(
		googleProvider,
		stateStore,
		linkRepo,
		memberService,
		deviceService,
		tokenService,
		authOpts...,
	)

	return &Services{
		authService:   authService,
		deviceService: deviceService,
		memberService: memberService,
		schoolService: schoolService,
		orderService:  orderService,
	}, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"ghostlounge_backend/internal/cache"
	"ghostlounge_backend/internal/calendar"
	"ghostlounge_backend/internal/config"
	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/lock"
	"ghostlounge_backend/internal/metrics"
	"ghostlounge_backend/internal/middleware"
	"ghostlounge_backend/internal/notifier"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/internal/router"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"
)

const (
	redisKeyPrefix  = "ghostlounge:"
	lockTTL         = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", true)
		utils.LogError(err, "Failed to load configuration")
		os.Exit(1)
	}
	utils.InitLogger(cfg.Server.LogLevel, cfg.Server.PrettyLogs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	// Initialize Database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db, cfg.Database.Driver); err != nil {
		return err
	}
	if cfg.Database.Seed {
		if err := database.Seed(ctx, db, database.SeedOptions{
			AdminUsername: cfg.Auth.AdminUsername,
			AdminPassword: cfg.Auth.AdminPassword,
		}); err != nil {
			return err
		}
	}
	utils.LogInfo("Database initialized", map[string]interface{}{"driver": cfg.Database.Driver})

	m := metrics.New()

	// Balance cache and reservation lock: Redis when configured, in-process otherwise.
	var (
		balances cache.BalanceCache = cache.NewMemory(cfg.Cache.BalanceTTL)
		locker   lock.Locker        = lock.NewLocalLocker()
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		balances = cache.NewRedis(rdb, redisKeyPrefix+"balance:", cfg.Cache.BalanceTTL, func(err error) {
			utils.LogWarn(err, "Balance cache unavailable")
		})
		locker = lock.NewRedisLocker(rdb, redisKeyPrefix+"lock:", lockTTL)
		utils.LogInfo("Redis cache and lock enabled", map[string]interface{}{"addr": cfg.Redis.Addr})
	}

	var syncer calendar.Syncer = calendar.Nop{}
	if cfg.AMQP.URL != "" {
		publisher, err := calendar.NewAMQPPublisher(ctx, cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			// a missing broker only disables the mirror
			utils.LogWarn(err, "Calendar mirror disabled")
		} else {
			defer publisher.Close()
			syncer = publisher
			utils.LogInfo("Calendar mirror enabled", map[string]interface{}{"exchange": cfg.AMQP.Exchange})
		}
	}

	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	clientRepo := repositories.NewClientRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	rankRepo := repositories.NewRankRepository(db)
	alertRepo := repositories.NewAlertRepository(db)
	pcRepo := repositories.NewPCRepository(db)
	reservationRepo := repositories.NewReservationRepository(db)

	// Initialize Services
	svc := router.Services{
		Auth:         services.NewAuthService(authRepo, db, tokens),
		Users:        services.NewUserService(authRepo, db),
		Clients:      services.NewClientService(clientRepo, db, balances),
		Catalog:      services.NewCatalogService(catalogRepo, db),
		Ledger:       services.NewLedgerService(db, clientRepo, catalogRepo, ledgerRepo, rankRepo, alertRepo, authRepo, balances, m),
		Ranks:        services.NewRankService(rankRepo, db),
		PCs:          services.NewPCService(pcRepo, db),
		Reservations: services.NewReservationService(db, reservationRepo, clientRepo, pcRepo, authRepo, locker, syncer, m),
		Alerts:       services.NewAlertService(alertRepo, clientRepo, db),
		Dashboard:    services.NewDashboardService(repositories.NewDashboardRepository(db)),
	}

	gin.SetMode(cfg.Server.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), utils.GinLogger(), m.GinMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, svc, tokens, m)

	sweeper := notifier.NewSweeper(svc.Alerts, cfg.Notifier.Interval, m)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

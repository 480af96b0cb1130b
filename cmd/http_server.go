package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/accendhq/accend/internal"
	"github.com/accendhq/accend/internal/auth"
	authpg "github.com/accendhq/accend/internal/auth/postgres"
	"github.com/accendhq/accend/internal/booking"
	bookingpg "github.com/accendhq/accend/internal/booking/postgres"
	"github.com/accendhq/accend/internal/catalog"
	"github.com/accendhq/accend/internal/core/events"
	"github.com/accendhq/accend/internal/request"
	requestpg "github.com/accendhq/accend/internal/request/postgres"
	"github.com/accendhq/accend/internal/stats"
	"github.com/accendhq/accend/internal/transport/rest"
	"github.com/accendhq/accend/internal/user"
	userpg "github.com/accendhq/accend/internal/user/postgres"
	"github.com/accendhq/accend/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Observability.Logging.Format == "json" {
		logger.Init("production")
	} else {
		logger.Init("development")
	}
	log := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	var registry *prometheus.Registry
	if config.Observability.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	bus := events.NewEventBus(log)

	authRepo := authpg.NewAuthRepository(gormDB)
	userRepo := userpg.NewUserRepository(gormDB)
	requestRepo := requestpg.NewRequestRepository(gormDB)
	bookingRepo := bookingpg.NewBookingRepository(gormDB)

	tokenGen := auth.NewJWTTokenGenerator(config.Security.SessionSecret, config.Security.SessionTTL)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost, log)
	userService := user.NewService(userRepo, log)
	catalogService := catalog.NewService(log)
	requestService := request.NewService(requestRepo, catalogService, userService, bus, log)
	bookingService := booking.NewService(bookingRepo, requestService, bus, log)

	statsService := stats.NewService(requestRepo, bookingRepo, registry, log)
	if registry != nil {
		statsService.RegisterEventHandlers(bus)
	}

	handlers := rest.Handlers{
		Auth:    auth.NewHandler(authService, config.Server.CookieSecure, config.Security.SessionTTL),
		User:    user.NewHandler(userService),
		Catalog: catalog.NewHandler(catalogService),
		Request: request.NewHandler(requestService),
		Booking: booking.NewHandler(bookingService),
		Stats:   stats.NewHandler(statsService),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, handlers, registry, config.Server.Origins(), log)

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		Router: router,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open connection pool so both
// share one set of pool limits.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpg.New(gormpg.Config{Conn: db.DB}), &gorm.Config{})
}

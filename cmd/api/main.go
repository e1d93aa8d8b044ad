package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dejobratic/pharmacie/internal/config"
	"github.com/dejobratic/pharmacie/internal/database"
	"github.com/dejobratic/pharmacie/internal/email"
	idemmemory "github.com/dejobratic/pharmacie/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/pharmacie/internal/idempotency/postgres"
	"github.com/dejobratic/pharmacie/internal/kafka"
	"github.com/dejobratic/pharmacie/internal/pharmacy/adapters"
	httpadapter "github.com/dejobratic/pharmacie/internal/pharmacy/adapters/http"
	"github.com/dejobratic/pharmacie/internal/pharmacy/adapters/memory"
	pharmacypostgres "github.com/dejobratic/pharmacie/internal/pharmacy/adapters/postgres"
	"github.com/dejobratic/pharmacie/internal/pharmacy/app"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	pharmacymetrics "github.com/dejobratic/pharmacie/internal/pharmacy/metrics"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/dejobratic/pharmacie/internal/telemetry"
	"github.com/dejobratic/pharmacie/migrations"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
)

const meterName = "github.com/dejobratic/pharmacie"

// Mirrors the seed rows of the orders migration.
var memoryDispensaries = []domain.Dispensary{
	{Code: "DSP01", Name: "Dispensaire Nord", Address: "12 rue des Lilas, 59000 Lille"},
	{Code: "DSP02", Name: "Dispensaire Centre", Address: "4 place de la République, 69002 Lyon"},
	{Code: "DSP03", Name: "Dispensaire Sud", Address: "27 avenue du Prado, 13008 Marseille"},
}

type storage struct {
	suppliers    ports.SupplierRepository
	categories   ports.CategoryRepository
	medications  ports.MedicationRepository
	orders       ports.OrderRepository
	dispensaries ports.DispensaryRepository
	idempotency  ports.IdempotencyStore
	tx           ports.TxManager
	ready        httpadapter.ReadinessCheck
	close        func()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(telemetry.ParseLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config, logger *slog.Logger) error {
	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		Insecure:       cfg.Telemetry.OTelInsecure,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := otel.Meter(meterName)
	pharmacyMetrics, err := pharmacymetrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	eventMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg, dbMetrics, logger)
	if err != nil {
		return err
	}
	defer store.close()

	eventBus := adapters.NewObservableEventBus(kafka.NewNoopEventBus(logger), eventMetrics)
	mailer := adapters.NewObservableMailer(email.New(email.Config{
		APIKey:    cfg.Mail.SendGridAPIKey,
		FromEmail: cfg.Mail.FromEmail,
		FromName:  cfg.Mail.FromName,
		Host:      cfg.Mail.Host,
	}, logger), logger)

	notifications := app.NewNotificationService(
		store.medications, store.categories, store.suppliers,
		mailer, eventBus, pharmacyMetrics, logger,
		app.WithPharmacyName(cfg.Service.PharmacyName),
	)
	handler := httpadapter.NewHandler(
		app.NewSupplierService(store.suppliers, store.categories, store.tx, logger),
		app.NewCatalogService(store.categories, store.medications, store.tx, notifications, logger),
		app.NewOrderService(
			store.orders, store.medications, store.dispensaries,
			eventBus, store.idempotency, store.tx, notifications, logger, pharmacyMetrics,
		),
		notifications,
		store.ready,
		logger,
	)

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           httpadapter.Wrap(mux, logger, httpMetrics),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, dbMetrics *database.Metrics, logger *slog.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		store.SeedDispensaries(memoryDispensaries...)
		return &storage{
			suppliers:    memory.NewSupplierRepository(store),
			categories:   memory.NewCategoryRepository(store),
			medications:  memory.NewMedicationRepository(store),
			orders:       memory.NewOrderRepository(store),
			dispensaries: memory.NewDispensaryRepository(store),
			idempotency:  idemmemory.NewStore(),
			tx:           memory.NewTxManager(store),
			close:        func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations")
		if err := database.RunMigrations(cfg.Database.URL, migrations.FS); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations completed successfully")
	}

	return &storage{
		suppliers:    pharmacypostgres.NewSupplierRepository(pool),
		categories:   pharmacypostgres.NewCategoryRepository(pool),
		medications:  adapters.NewObservableMedicationRepository(pharmacypostgres.NewMedicationRepository(pool), dbMetrics),
		orders:       adapters.NewObservableOrderRepository(pharmacypostgres.NewOrderRepository(pool), dbMetrics),
		dispensaries: pharmacypostgres.NewDispensaryRepository(pool),
		idempotency:  idempostgres.NewStore(pool),
		tx:           database.NewTxManager(pool),
		ready: func(ctx context.Context) error {
			return database.CheckReady(ctx, pool)
		},
		close: pool.Close,
	}, nil
}

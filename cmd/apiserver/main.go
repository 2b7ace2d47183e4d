// API server entry point for the appeals casework service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openappeals/casework/internal/application/casework"
	"github.com/openappeals/casework/internal/config"
	"github.com/openappeals/casework/internal/domain/audit"
	"github.com/openappeals/casework/internal/domain/calendar"
	"github.com/openappeals/casework/internal/domain/timetable"
	"github.com/openappeals/casework/internal/infrastructure/calendar/govuk"
	"github.com/openappeals/casework/internal/infrastructure/database/postgres"
	"github.com/openappeals/casework/internal/infrastructure/database/postgres/repositories"
	"github.com/openappeals/casework/internal/infrastructure/database/redis"
	"github.com/openappeals/casework/internal/infrastructure/messaging/kafka"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/prometheus"
	"github.com/openappeals/casework/internal/infrastructure/notify"
	"github.com/openappeals/casework/internal/infrastructure/storage/minio"
	httpserver "github.com/openappeals/casework/internal/interfaces/http"
	"github.com/openappeals/casework/internal/interfaces/http/handlers"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:     "apiserver",
		Short:   "Planning appeals casework API server",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to configuration file")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Log.Level,
		Format: logFormat(cfg.Log.Format),
	})
	if err != nil {
		return err
	}
	logger.Info("starting casework api server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port))

	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.Database.MigrationPath != "" {
		if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
			return err
		}
	}

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	cache := redis.NewRedisCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL))

	holidaySource := govuk.NewCachedSource(
		govuk.NewClient(cfg.Calendar, logger), cache, cfg.Calendar.CacheTTL)
	businessCal := calendar.NewBusinessCalendar(holidaySource, cfg.Calendar.Division)
	calc := timetable.NewCalculator(businessCal, cfg.Timetable.CutoffHour, cfg.Timetable.CutoffMinute)

	appealRepo := repositories.NewPostgresAppealRepo(conn, logger)
	ttRepo := repositories.NewPostgresTimetableRepo(conn, logger)
	auditSink := repositories.NewPostgresAuditRepo(conn, logger)
	recorder := audit.NewRecorder(auditSink, nil)

	publisher := kafka.NewPublisher(cfg.Kafka, logger)
	defer publisher.Close()

	notifier := notify.NewClient(cfg.Notify, logger)

	docStore, err := minio.NewStore(ctx, cfg.MinIO, logger)
	if err != nil {
		return err
	}

	metrics := prometheus.New("casework")
	svc := casework.NewService(appealRepo, ttRepo, calc, recorder, notifier, publisher, metrics, logger, nil)

	health := handlers.NewHealthHandler(version, map[string]handlers.Pinger{
		"postgres": pingerFunc(conn.HealthCheck),
		"redis":    pingerFunc(redisClient.Ping),
	})

	srv := httpserver.NewServer(cfg.Server, logger, metrics, health,
		handlers.NewAppealHandler(svc, logger),
		handlers.NewDocumentHandler(docStore, logger),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("server shutdown error", logging.Err(err))
	}
	logger.Info("server stopped")
	return nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: %s not found, using environment configuration\n", path)
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

// logFormat maps the config vocabulary onto the logger's encodings.
func logFormat(format string) string {
	if format == "text" {
		return "console"
	}
	return format
}

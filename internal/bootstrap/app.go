package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"finance-doc-analyzer/internal/analysis"
	appsvc "finance-doc-analyzer/internal/app"
	"finance-doc-analyzer/internal/cache"
	"finance-doc-analyzer/internal/config"
	"finance-doc-analyzer/internal/model"
	"finance-doc-analyzer/internal/pkg/logger"
	mysqlClient "finance-doc-analyzer/internal/platform/mysql"
	rabbitmqClient "finance-doc-analyzer/internal/platform/rabbitmq"
	redisClient "finance-doc-analyzer/internal/platform/redis"
	"finance-doc-analyzer/internal/platform/storage"
	"finance-doc-analyzer/internal/repository"
	"finance-doc-analyzer/internal/worker"
)

type App struct {
	Config         *config.Config
	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	Storage        *storage.Store
	AnalysisWorker *worker.AnalysisWorker

	Documents *appsvc.DocumentService
	Analysis  *appsvc.AnalysisService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	documentRepo := repository.NewDocumentRepository(a.MySQL)
	documentCache := cache.NewDocumentCache(a.Redis, time.Duration(cfg.Redis.DocumentTTLSeconds)*time.Second)
	var blobs appsvc.BlobStore
	if a.Storage != nil {
		blobs = a.Storage
	}

	coordinator := analysis.NewCoordinator(
		analysis.NewHTTPClient(cfg.Analysis.CallTimeout.Duration),
		analysis.BuildRegistry(cfg.Analysis.BaseURL, registryEntries(cfg.Analysis.Types)),
		analysis.CoordinatorConfig{
			OverallTimeout: cfg.Analysis.OverallTimeout.Duration,
			MaxConcurrency: cfg.Analysis.MaxConcurrency,
		},
	)
	publisher := rabbitmqClient.NewAnalysisPublisher(a.MQConn, cfg.RabbitMQ.AnalysisQueue)

	a.Documents = appsvc.NewDocumentService(documentRepo, blobs, documentCache, int64(cfg.Upload.MaxSizeMB)<<20)
	a.Analysis = appsvc.NewAnalysisService(documentRepo, coordinator, blobs, documentCache, publisher)

	a.AnalysisWorker = worker.NewAnalysisWorker(a.MQConn, a.Analysis, cfg.RabbitMQ.AnalysisQueue, 1)
	if err := a.AnalysisWorker.Start(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("start analysis worker failed: %w", err)
	}

	slog.Info("application ready",
		"env", cfg.App.Env,
		"analysis_types", len(cfg.Analysis.Types),
		"object_storage", a.Storage != nil,
	)
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config
	var err error

	a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN(), &model.Document{})
	if err != nil {
		return err
	}

	a.Redis, err = redisClient.New(ctx, redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}

	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.AnalysisQueue)
	if err != nil {
		return err
	}

	if cfg.Minio.Enabled() {
		a.Storage, err = storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.Bucket,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func registryEntries(types []config.AnalysisTypeConfig) []analysis.RegistryEntry {
	entries := make([]analysis.RegistryEntry, 0, len(types))
	for _, t := range types {
		entries = append(entries, analysis.RegistryEntry{
			Name:         t.Name,
			Path:         t.Path,
			DefaultQuery: t.DefaultQuery,
		})
	}
	return entries
}

func (a *App) Close() error {
	var closeErr error
	if a.AnalysisWorker != nil {
		a.AnalysisWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

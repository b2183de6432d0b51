package main

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/turtacn/NMReportChecker/internal/application/analysis"
	"github.com/turtacn/NMReportChecker/internal/config"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/database/postgres"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/database/redis"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NMReportChecker/internal/infrastructure/storage/minio"
	"github.com/turtacn/NMReportChecker/internal/interfaces/http/handlers"
	"github.com/turtacn/NMReportChecker/pkg/types/nmr"
)

const topicSetupTimeout = 10 * time.Second

// infra holds the optional adapters the config enabled.
type infra struct {
	deps     analysis.Deps
	checkers []handlers.HealthChecker
	closers  []func()
	logger   logging.Logger
}

// close releases adapters in reverse order of creation.
func (in *infra) close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}

// probe runs every dependency check and joins the failures.
func (in *infra) probe(ctx context.Context) error {
	var errs []error
	for _, c := range in.checkers {
		if err := c.Check(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (in *infra) add(checker handlers.HealthChecker, closer func()) {
	if checker != nil {
		in.checkers = append(in.checkers, checker)
	}
	if closer != nil {
		in.closers = append(in.closers, closer)
	}
}

// buildInfra connects every enabled adapter.  On error the adapters built so
// far are closed.
func buildInfra(ctx context.Context, cfg *config.Config, logger logging.Logger) (in *infra, err error) {
	in = &infra{logger: logger}
	defer func() {
		if err != nil {
			in.close()
		}
	}()

	if cfg.Database.Enabled {
		if err = setupPostgres(in, cfg.Database); err != nil {
			return nil, err
		}
	}
	if cfg.Redis.Enabled {
		if err = setupRedis(in, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.MinIO.Enabled {
		if err = setupMinIO(in, cfg.MinIO); err != nil {
			return nil, err
		}
	}
	if cfg.Kafka.Enabled {
		if err = setupKafka(ctx, in, cfg.Kafka); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func setupPostgres(in *infra, cfg config.DatabaseConfig) error {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DSN()); err != nil {
			return err
		}
		in.logger.Info("database migrations applied")
	}
	pool, err := postgres.NewConnectionPool(cfg, in.logger)
	if err != nil {
		return err
	}
	in.deps.Repository = repositories.NewAnalysisRepository(pool, in.logger)
	in.add(
		handlers.Checker("postgres", func(ctx context.Context) error { return postgres.HealthCheck(ctx, pool) }),
		func() { postgres.Close(pool) },
	)
	return nil
}

func setupRedis(in *infra, cfg *config.Config) error {
	client, err := redis.NewClient(&redis.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, in.logger)
	if err != nil {
		return err
	}
	in.deps.Cache = redis.NewRedisCache(client, in.logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Analysis.CacheTTL),
	)
	in.add(handlers.Checker("redis", client.Ping), func() { _ = client.Close() })
	return nil
}

func setupMinIO(in *infra, cfg config.MinIOConfig) error {
	client, err := minio.NewMinIOClient(&minio.MinIOConfig{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKey,
		SecretAccessKey: cfg.SecretKey,
		UseSSL:          cfg.UseSSL,
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		PresignExpiry:   cfg.PresignExpiry,
	}, in.logger)
	if err != nil {
		return err
	}
	in.deps.Archive = archiveAdapter{minio.NewSpectrumArchive(client, in.logger)}
	in.add(
		handlers.Checker("minio", func(ctx context.Context) error {
			_, err := client.HealthCheck(ctx)
			return err
		}),
		func() { _ = client.Close() },
	)
	return nil
}

func setupKafka(ctx context.Context, in *infra, cfg config.KafkaConfig) error {
	topic := kafka.DefaultTopic(cfg.Topic)

	// The topic may be provisioned out of band; failing to create it here
	// is not fatal.
	if tm, err := kafka.NewTopicManager(cfg.Brokers, in.logger); err != nil {
		in.logger.Warn("kafka topic manager unavailable", logging.Err(err))
	} else {
		tctx, cancel := context.WithTimeout(ctx, topicSetupTimeout)
		if err := tm.CreateTopic(tctx, topic); err != nil {
			in.logger.Warn("kafka topic setup failed", logging.String("topic", topic.Name), logging.Err(err))
		}
		cancel()
		_ = tm.Close()
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Brokers,
		Acks:         cfg.RequiredAcks,
		MaxAttempts:  cfg.MaxAttempts,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}, in.logger)
	if err != nil {
		return err
	}
	pub := kafka.NewEventPublisher(producer, topic.Name)
	in.deps.Publisher = pub
	in.add(nil, func() { _ = pub.Close() })
	return nil
}

// archiveAdapter narrows SpectrumArchive.Store to the object key.
type archiveAdapter struct {
	*minio.SpectrumArchive
}

func (a archiveAdapter) Store(ctx context.Context, analysisID string, s nmr.Spectrum) (string, error) {
	stored, err := a.SpectrumArchive.Store(ctx, analysisID, s)
	if err != nil {
		return "", err
	}
	return stored.Key, nil
}

//Personal.AI order the ending

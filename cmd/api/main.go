package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Redrow_Exposed/internal/app"
	"Redrow_Exposed/internal/config"
	"Redrow_Exposed/internal/logger"
	"Redrow_Exposed/internal/metrics"
	"Redrow_Exposed/internal/pkg"
	"Redrow_Exposed/internal/repository/mysql"
	"Redrow_Exposed/internal/repository/redis"
	"Redrow_Exposed/internal/service"
	"Redrow_Exposed/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	db, err := mysql.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("mysql init failed", zap.Error(err))
	}
	// 开发环境自动建表，生产用 cmd/admin migrate
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		if err = mysql.AutoMigrate(db); err != nil {
			log.Fatal("auto migrate failed", zap.Error(err))
		}
	}

	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal("redis init failed", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("storage init failed", zap.Error(err))
	}

	var publish service.Sender
	if len(cfg.Kafka.Brokers) > 0 {
		producer := pkg.NewKafkaProducer(cfg.Kafka)
		defer func() { _ = producer.Close() }()
		publish = service.KafkaSender(producer)
	} else {
		publish = service.LogSender(log.Named("outbox"))
	}

	a := app.New(app.Deps{
		Config:  cfg,
		Log:     log,
		DB:      db,
		Redis:   rdb,
		Store:   store,
		Mailer:  pkg.NewSMTPMailer(cfg.SMTP),
		Metrics: metrics.New("redrow"),
		Publish: publish,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Relayer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err = g.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
	}
}

// newStore 配置了 access key 用 S3，否则退化为内存存储（仅开发）
func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.ObjectStore, error) {
	if cfg.Storage.AccessKey == "" {
		log.Warn("storage access key not set, using in-memory object store")
		return storage.NewMemoryStore(cfg.Storage.PublicBaseURL), nil
	}
	s3, err := storage.NewS3Store(cfg.Storage, storage.WithLogger(log.Named("storage")))
	if err != nil {
		return nil, err
	}
	if err = s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s3, nil
}

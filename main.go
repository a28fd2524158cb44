package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"artwork-catalog/config"
	"artwork-catalog/database"
	"artwork-catalog/internal/analysis"
	adminapi "artwork-catalog/internal/api/admin"
	artworksapi "artwork-catalog/internal/api/artworks"
	authapi "artwork-catalog/internal/api/auth"
	marketplaceapi "artwork-catalog/internal/api/marketplace"
	usersapi "artwork-catalog/internal/api/users"
	routes "artwork-catalog/internal/app/http"
	"artwork-catalog/internal/app/http/middleware"
	"artwork-catalog/internal/infra/blob"
	"artwork-catalog/internal/infra/llm"
	"artwork-catalog/internal/infra/queue"
	"artwork-catalog/internal/infra/store"
	stripepub "artwork-catalog/internal/infra/stripe"
	"artwork-catalog/internal/media"
	"artwork-catalog/internal/pipeline"
	"artwork-catalog/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	config.LoadEnv()

	log, err := logger.New(config.LOG_LEVEL)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, log *zap.Logger) error {
	st, err := openStore(log)
	if err != nil {
		return err
	}
	blobs, err := openBlobs(ctx, log)
	if err != nil {
		return err
	}

	llmCfg := llm.DefaultConfig().WithModel(llm.TierStandard, config.GEMINI_MODEL)
	client, err := llm.NewGeminiClient(ctx, llmCfg, config.GEMINI_API_KEY)
	if err != nil {
		return err
	}
	defer client.Close()

	q := openQueue(log)
	normalizer := media.NewNormalizer(media.Config{
		MaxBytes:         config.MAX_UPLOAD_BYTES,
		MaxPixels:        config.MAX_IMAGE_PIXELS,
		ThumbnailSize:    config.THUMBNAIL_SIZE,
		ThumbnailQuality: config.THUMBNAIL_QUALITY,
	})
	p := pipeline.New(normalizer, blobs, st, analysis.NewAnalyzer(client, log), q, pipeline.Config{
		AnalysisTimeout: config.ANALYSIS_TIMEOUT,
		MaxAttempts:     config.ANALYSIS_MAX_ATTEMPTS,
	}, log)

	workersDone := make(chan error, 1)
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	go func() { workersDone <- p.Run(workerCtx) }()

	var publisher marketplaceapi.Publisher
	if config.STRIPE_SECRET_KEY != "" {
		publisher = stripepub.NewPublisher(config.STRIPE_SECRET_KEY, log)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	// base64 uploads inflate by 4/3, plus framing
	r.Use(middleware.BodyLimit(normalizer.MaxBytes()*4/3 + 1<<20))

	routes.RegisterRoutes(r, routes.Handlers{
		Auth: authapi.NewHandler(st, authapi.Options{
			Secret: config.JWT_SECRET,
			Google: authapi.GoogleConfig{
				ClientID:         config.GOOGLE_CLIENT_ID,
				ClientSecret:     config.GOOGLE_CLIENT_SECRET,
				RedirectURL:      config.GOOGLE_REDIRECT_URL,
				FrontendRedirect: config.GOOGLE_FRONTEND_REDIRECT,
			},
			AdminEmails: config.ADMIN_EMAILS,
		}, log),
		Users:       usersapi.NewHandler(st, st, log),
		Artworks:    artworksapi.NewHandler(p, st, blobs, normalizer.MaxBytes(), log).WithStorefront(st, publisher),
		Marketplace: marketplaceapi.NewHandler(st, publisher, log),
		Admin:       adminapi.NewHandler(st, log),
	}, config.JWT_SECRET)

	srv := &http.Server{
		Addr:              ":" + config.PORT,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case err := <-workersDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}

	// Close stops intake; workers finish what is already queued.
	if err := q.Close(); err != nil {
		log.Error("queue close", zap.Error(err))
	}
	select {
	case err := <-workersDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("workers stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		cancelWorkers()
		log.Warn("workers did not drain before the shutdown deadline")
	}
	return nil
}

func openStore(log *zap.Logger) (store.Store, error) {
	if config.STORAGE_DRIVER == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	db, err := database.InitDB(config.DB_URL, log)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}

func openBlobs(ctx context.Context, log *zap.Logger) (blob.Store, error) {
	if config.BLOB_DRIVER != "s3" {
		return blob.NewInlineStore(), nil
	}
	return blob.NewS3Store(ctx, blob.S3Config{
		Endpoint:        config.S3_ENDPOINT,
		AccessKeyID:     config.S3_ACCESS_KEY_ID,
		SecretAccessKey: config.S3_SECRET_ACCESS_KEY,
		BucketName:      config.S3_BUCKET_NAME,
		Region:          config.S3_REGION,
	}, log)
}

func openQueue(log *zap.Logger) queue.Queue {
	if config.QUEUE_DRIVER == "kafka" {
		return queue.NewKafkaQueue(queue.KafkaConfig{
			Brokers:   config.KAFKA_BROKERS,
			Topic:     config.KAFKA_TOPIC,
			GroupID:   config.KAFKA_GROUP_ID,
			Consumers: config.ANALYSIS_WORKERS,
		}, log)
	}
	return queue.NewMemoryQueue(config.ANALYSIS_WORKERS*16, config.ANALYSIS_WORKERS, log)
}

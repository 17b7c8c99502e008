package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lextutor-backend/config"
	"lextutor-backend/fetcher"
	"lextutor-backend/handlers"
	"lextutor-backend/lawcode"
	"lextutor-backend/logging"
	"lextutor-backend/parser"
	"lextutor-backend/repository"
	"lextutor-backend/scraper"
	"lextutor-backend/service"
	"lextutor-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "path to lextutor.yaml")
	flag.Parse()

	// Load .env file from project root (relative to cmd/server/)
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := loadRegistry(cfg.LawCodesFile)
	if err != nil {
		logger.Fatal("Failed to load law codes", zap.Error(err))
	}
	logger.Info("Law codes loaded", zap.Int("count", len(registry.Codes())))

	generator, closeGenerator, err := service.NewGenerator(ctx, service.GenerationConfig{
		Backend:         cfg.LLM.Backend,
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxTokens,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize model client", zap.Error(err))
	}
	defer closeGenerator()
	logger.Info("Model client initialized", zap.String("backend", cfg.LLM.Backend), zap.String("model", cfg.LLM.Model))

	artifacts, err := storage.New(ctx, storage.Config{
		Type:         storage.Type(cfg.Storage.Type),
		LocalPath:    cfg.Storage.LocalPath,
		S3Bucket:     cfg.Storage.S3Bucket,
		S3Region:     cfg.Storage.S3Region,
		S3Prefix:     cfg.Storage.S3Prefix,
		AWSAccessKey: cfg.Storage.AWSAccessKey,
		AWSSecretKey: cfg.Storage.AWSSecretKey,
	})
	if err != nil {
		logger.Fatal("Failed to initialize artifact storage", zap.Error(err))
	}

	articles, caseLaw, closeSources, err := initSources(cfg, *configFile, artifacts, logger)
	if err != nil {
		logger.Fatal("Failed to initialize extraction", zap.Error(err))
	}
	defer closeSources()

	statuteFetcher := fetcher.NewStatuteFetcher(registry, articles,
		fetcher.StatuteWithCache(fetcher.NewArticleCache(cfg.Statute.CacheSize)),
		fetcher.StatuteWithRateLimiter(fetcher.NewRateLimiter(cfg.Statute.MinInterval)),
		fetcher.StatuteWithRetries(cfg.Statute.MaxRetries, cfg.Statute.RetryDelay),
		fetcher.StatuteWithLogger(logger.Named("statute")),
	)
	jurisprudenceFetcher := fetcher.NewJurisprudenceFetcher(caseLaw,
		fetcher.JurisprudenceWithMaxResults(cfg.Jurisprudence.MaxResults),
		fetcher.JurisprudenceWithRetries(cfg.Jurisprudence.MaxRetries, cfg.Jurisprudence.RetryDelay),
		fetcher.JurisprudenceWithLogger(logger.Named("jurisprudence")),
	)
	analysisService := service.NewAnalysisService(generator,
		service.AnalysisWithRetry(cfg.Analysis.MaxAttempts, cfg.Analysis.BaseDelay, cfg.Analysis.MaxDelay),
		service.AnalysisWithLogger(logger.Named("analysis")),
	)

	opts := []service.QuestionServiceOption{
		service.QuestionWithAnalyzer(analysisService),
		service.QuestionWithParser(parser.NewResponseParser(registry)),
		service.QuestionWithArticleFetcher(statuteFetcher),
		service.QuestionWithJurisprudenceSearcher(jurisprudenceFetcher),
		service.QuestionWithLogger(logger.Named("question")),
	}

	var questionRepo *repository.QuestionRepository
	if cfg.DatabaseURL != "" {
		db, err := initPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to initialize Postgres", zap.Error(err))
		}
		defer db.Close()
		questionRepo = repository.NewQuestionRepository(db)
		if err := questionRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to prepare question log", zap.Error(err))
		}
		opts = append(opts, service.QuestionWithRecorder(questionRepo))
		logger.Info("Question history enabled")
	} else {
		logger.Info("DATABASE_URL not set, question history disabled")
	}

	questionService := service.NewQuestionService(opts...)

	// Initialize handlers
	questionHandler := handlers.NewQuestionHandler(questionService)
	artifactHandler := handlers.NewArtifactHandler(artifacts)
	streamHandler := handlers.NewStreamHandler(questionService, cfg.AllowedOrigins, logger.Named("stream"))

	r := gin.Default()

	r.GET("/health", handlers.Health)
	r.GET("/ws", streamHandler.Stream)

	api := r.Group("/api")
	{
		api.POST("/process", questionHandler.ProcessQuestion)
		api.POST("/fetch-article", questionHandler.FetchArticle)
		api.GET("/artifacts/*path", artifactHandler.GetArtifact)
		api.DELETE("/artifacts/*path", artifactHandler.DeleteArtifact)

		if questionRepo != nil {
			historyHandler := handlers.NewHistoryHandler(questionRepo)
			api.GET("/questions", historyHandler.ListQuestions)
			api.GET("/questions/:id", historyHandler.GetQuestion)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown did not complete", zap.Error(err))
		}
	}()

	logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("extractor", cfg.Extractor.Mode))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func loadRegistry(path string) (*lawcode.Registry, error) {
	if path != "" {
		return lawcode.LoadFile(path)
	}
	return lawcode.Default()
}

// initSources returns the statute and case-law sources. In process mode each
// lookup runs in a worker process; in-process mode shares one Chromium.
func initSources(cfg *config.Config, configFile string, artifacts storage.Storage, logger *zap.Logger) (fetcher.ArticleSource, fetcher.CaseLawSource, func(), error) {
	if cfg.Extractor.Mode == config.ExtractorModeProcess {
		src := newProcessSource(cfg, configFile, logger)
		return src, src, func() {}, nil
	}

	browser := scraper.NewBrowser(scraper.BrowserConfig{
		Bin:      cfg.Browser.Bin,
		Headless: cfg.Browser.Headless,
	}, logger.Named("browser"))

	caseLawCfg := scraper.DefaultCaseLawConfig()
	caseLawCfg.WaitTimeout = cfg.Jurisprudence.WaitTimeout
	caseLawCfg.Scrolls = cfg.Jurisprudence.Scrolls
	caseLawCfg.ScrollDelay = cfg.Jurisprudence.ScrollDelay
	caseLawCfg.MaxResults = cfg.Jurisprudence.MaxResults

	statute := scraper.NewStatuteScraper(browser, cfg.Statute.Timeout, logger.Named("fedlex"))
	caseLaw := scraper.NewCaseLawScraper(browser, caseLawCfg, artifacts, logger.Named("entscheidsuche"))
	closeFn := func() {
		if err := browser.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}
	}
	return statute, caseLaw, closeFn, nil
}

// newProcessSource starts workers with the server's config file so both sides
// agree on storage and browser settings. Workers log JSON so the stderr tail
// carried in errors stays machine readable.
func newProcessSource(cfg *config.Config, configFile string, logger *zap.Logger) *fetcher.ProcessSource {
	opts := []fetcher.ProcessOption{
		fetcher.ProcessWithMaxProcs(cfg.Extractor.MaxProcs),
		fetcher.ProcessWithTimeout(cfg.Extractor.Timeout),
		fetcher.ProcessWithEnv("LOG_FORMAT=json"),
		fetcher.ProcessWithLogger(logger.Named("worker")),
	}
	if configFile != "" {
		opts = append(opts, fetcher.ProcessWithArgs("--config", configFile))
	}
	return fetcher.NewProcessSource(cfg.Extractor.Bin, opts...)
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

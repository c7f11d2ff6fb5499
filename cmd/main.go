package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/adapters"
	"github.com/rishithkoduri/web-translator/adapters/browser"
	"github.com/rishithkoduri/web-translator/adapters/mongo"
	"github.com/rishithkoduri/web-translator/adapters/stt"
	"github.com/rishithkoduri/web-translator/adapters/translate"
	"github.com/rishithkoduri/web-translator/adapters/tts"
	"github.com/rishithkoduri/web-translator/domain/repositories"
	"github.com/rishithkoduri/web-translator/internal/api"
	"github.com/rishithkoduri/web-translator/internal/auth"
	"github.com/rishithkoduri/web-translator/internal/config"
	"github.com/rishithkoduri/web-translator/internal/websocket"
	"github.com/rishithkoduri/web-translator/usecase"
)

const mockUtteranceBytes = 64 * 1024

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Translation service backend and history
	backend, err := newTranslationBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize translation backend", zap.Error(err))
	}

	history, closeHistory, err := newHistoryStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize history store", zap.Error(err))
	}
	defer closeHistory()

	translations := usecase.NewTranslationService(backend, history, logger)
	retention := usecase.NewHistoryRetentionService(history, cfg.HistoryRetention, 0, logger)
	retention.Start()
	defer retention.Stop()

	// Voice sessions call the translation service over HTTP
	sessionTranslator := translate.NewHTTPClient(cfg.TranslateServiceURL, cfg.TranslateTimeout, logger)

	provider, closeProvider, err := newSessionProvider(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech providers", zap.Error(err))
	}
	defer closeProvider()

	hub := websocket.NewHub(sessionTranslator, usecase.VoiceSessionConfig{
		TargetLanguage:   "es",
		SourceLanguage:   cfg.SourceLanguage,
		SampleRate:       cfg.SampleRate,
		Encoding:         cfg.Encoding,
		TranslateTimeout: cfg.TranslateTimeout,
	}, provider, logger)
	hub.SetAllowedOrigins(cfg.AllowedOrigins)
	go hub.Run(ctx)

	tokens, err := newTokenIssuer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize token issuer", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	// Initialize API routes
	api.InitRoutes(e, hub, translations, tokens, api.Options{
		TranslateRateLimit: cfg.TranslateRateLimit,
	}, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("recognizer", cfg.RecognizerProvider),
		zap.String("speech", cfg.SpeechProvider),
		zap.String("translator", backend.Name()),
		zap.String("history", cfg.HistoryStore))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newTranslationBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.NamedTranslator, error) {
	switch cfg.TranslatorProvider {
	case config.TranslatorGemini:
		return translate.NewGeminiTranslator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	case config.TranslatorOpenAI:
		return translate.NewOpenAITranslator(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	default:
		return translate.NewDictionaryTranslator(nil, 0), nil
	}
}

func newHistoryStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.TranslationHistoryRepository, func(), error) {
	if cfg.HistoryStore != config.HistoryMongo {
		return adapters.NewMemoryHistoryRepository(0), func() {}, nil
	}

	client, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return nil, nil, err
	}

	repo := mongo.NewHistoryRepository(client.Database, logger)
	if err := repo.EnsureIndexes(ctx); err != nil {
		client.Close(context.Background())
		return nil, nil, err
	}

	return repo, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Close(closeCtx)
	}, nil
}

// newSessionProvider wires the configured recognition and speech providers
// into every websocket connection
func newSessionProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (websocket.SessionProvider, func(), error) {
	closeFn := func() {}

	var shared repositories.SpeechRecognizerFactory
	switch cfg.RecognizerProvider {
	case config.RecognizerGoogle:
		factory, err := stt.NewGoogleRecognizerFactory(ctx, logger)
		if err != nil {
			return nil, nil, err
		}
		shared = factory
		closeFn = func() {
			if err := factory.Close(); err != nil {
				logger.Warn("Failed to close speech client", zap.Error(err))
			}
		}
	case config.RecognizerMock:
		shared = stt.NewMockRecognizerFactory(logger, mockUtteranceBytes)
	}

	var synth tts.Synthesizer
	switch cfg.SpeechProvider {
	case config.SpeechElevenLabs:
		elevenLabs, err := tts.NewElevenLabsSynthesizer(tts.NewElevenLabsConfigFromEnv(), logger)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		synth = elevenLabs
	case config.SpeechMock:
		synth = tts.NewMockSynthesizer(logger, 20*time.Millisecond)
	}

	provider := func(clientID string, sink repositories.AudioSink) websocket.SessionDeps {
		var deps websocket.SessionDeps

		switch cfg.RecognizerProvider {
		case config.RecognizerBrowser:
			bridge := browser.NewBridge(sink, logger.With(zap.String("clientID", clientID)))
			deps.Recognizers = bridge
			deps.Browser = bridge
		case config.RecognizerNone:
		default:
			deps.Recognizers = shared
		}

		if synth != nil {
			deps.Speech = tts.NewStreamingSpeechOutput(synth, sink, logger)
		} else {
			deps.Speech = browser.NewSpeechOutput(sink)
		}

		return deps
	}

	return provider, closeFn, nil
}

func newTokenIssuer(cfg *config.Config, logger *zap.Logger) (*auth.TokenIssuer, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.New().String()
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	return auth.NewTokenIssuer(secret, cfg.TokenTTL)
}

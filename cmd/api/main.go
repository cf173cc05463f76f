// Package main is the entry point for the chat server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oruko-mi/chat/internal/config"
	"github.com/oruko-mi/chat/internal/handler"
	"github.com/oruko-mi/chat/internal/llm"
	natsclient "github.com/oruko-mi/chat/internal/nats"
	"github.com/oruko-mi/chat/internal/service"
	"github.com/oruko-mi/chat/pkg/logger"
	"github.com/oruko-mi/chat/pkg/tracing"
)

const shutdownTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:   "oruko-chat",
	Short: "Orúkọ.mi chat server: a browser chat over an LLM completion API.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), config.LoadFrom(viper.GetViper()))
	},
	SilenceUsage: true,
}

// flagEnv maps each flag to the environment variable it overrides.
var flagEnv = map[string]string{
	"port":      "PORT",
	"log-level": "LOG_LEVEL",
	"provider":  "LLM_PROVIDER",
	"model":     "LLM_MODEL",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("port", "", "port to listen on (overrides PORT)")
	flags.String("log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	flags.String("provider", "", "openai or anthropic (overrides LLM_PROVIDER)")
	flags.String("model", "", "completion model (overrides LLM_MODEL)")

	for name, key := range flagEnv {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting chat server",
		zap.String("provider", cfg.LLMProvider),
		zap.String("port", cfg.ServerPort),
	)

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "oruko-chat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tracing.Shutdown(shutdownCtx, tp)
			}()
		}
	}

	// The client reports a missing key on first use; warn early as well.
	hasCredential := cfg.APIKey() != ""
	if !hasCredential {
		log.Warn("API key is missing, add it to the .env file", zap.String("provider", cfg.LLMProvider))
	}

	llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), llm.Options{
		APIKey:      cfg.APIKey(),
		BaseURL:     cfg.BaseURL(),
		Model:       cfg.LLMModel,
		Temperature: llm.Temperature(cfg.LLMTemperature),
	})
	if err != nil {
		return err
	}

	events := service.NewBroadcaster(log)
	defer func() {
		if err := events.Close(); err != nil {
			log.Warn("failed to close event bus", zap.Error(err))
		}
	}()
	publishers := service.Publishers{events}

	var natsClient *natsclient.Client
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return err
		}
		defer natsClient.Close()

		publishers = append(publishers, natsclient.NewPublisher(natsClient))
		log.Info("publishing events to NATS", zap.String("url", cfg.NATSURL))
	}

	store := service.NewConversationStore(log)
	ctrl := service.NewController(store, llmClient,
		service.WithPublisher(publishers),
		service.WithLogger(log),
		service.WithModel(cfg.LLMModel),
		service.WithTemperature(cfg.LLMTemperature),
	)

	if cfg.AuthSecret != "" {
		log.Info("API auth enabled, chat view refreshes instead of streaming events")
	}

	router, err := handler.NewRouter(handler.RouterConfig{
		Controller:  ctrl,
		Broadcaster: events,
		NATS:        natsClient,
		Logger:      log,

		Provider:             cfg.LLMProvider,
		CredentialConfigured: hasCredential,

		AuthSecret:        cfg.AuthSecret,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}

	log.Info("server stopped")
	return nil
}

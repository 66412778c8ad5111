package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	portfolioweb "github.com/MegaGrindStone/portfolio-web"
	"github.com/MegaGrindStone/portfolio-web/internal/chat"
	"github.com/MegaGrindStone/portfolio-web/internal/handlers"
	"github.com/MegaGrindStone/portfolio-web/internal/services"
	"github.com/rs/cors"
)

type ServeCommand struct {
	configFlags
	Port string `help:"The port to listen on, overrides the configuration." env:"PORT" default:""`
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Port != "" {
		cfg.Port = c.Port
	}

	logger, logCloser, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer logCloser.Close()

	portfolio, err := cfg.portfolio()
	if err != nil {
		return err
	}
	instruction, err := chat.BuildInstruction(portfolio)
	if err != nil {
		return err
	}

	completer, err := cfg.LLM.completer(ctx, logger)
	if err != nil {
		return fmt.Errorf("error creating %s completer: %w", cfg.LLM.base().Provider, err)
	}

	inbox, err := services.NewBoltInbox(cfg.InboxPath)
	if err != nil {
		return err
	}
	defer inbox.Close()

	greeting := cfg.Chat.Greeting
	if greeting == "" {
		greeting = chat.DefaultGreeting(portfolio)
	}
	registry := chat.NewRegistry(completer, instruction, chat.Options{
		Greeting: greeting,
		Fallback: cfg.Chat.Fallback,
	}, cfg.Chat.SessionTTL, logger)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go registry.Run(sweepCtx)

	m, err := handlers.NewMain(registry, inbox, portfolio, logger)
	if err != nil {
		return err
	}

	// Serve static files
	staticFS, err := fs.Sub(portfolioweb.StaticFS, "static")
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(staticFS))

	// Create custom mux
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleHome)
	mux.HandleFunc("/chat", m.HandleChats)
	mux.HandleFunc("/chat/toggle", m.HandleToggle)
	mux.HandleFunc("GET /api/sessions/{id}", m.HandleSessionState)
	mux.HandleFunc("/sse/messages", m.HandleSSE)
	mux.HandleFunc("/contact", m.HandleContact)

	var handler http.Handler = mux
	if len(cfg.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}).Handler(mux)
	}

	// Create custom server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		stopSweep()
		if err := m.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown sse server", slog.String(errLoggerKey, err.Error()))
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("Server starting",
			slog.String("port", cfg.Port),
			slog.String("provider", cfg.LLM.base().Provider),
			slog.String("model", cfg.LLM.base().Model))
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		// Create context with timeout for shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String(errLoggerKey, err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String(errLoggerKey, err.Error()))
			}
		}
	}

	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/predatorx7/logshipper/pkg/broker"
	"github.com/predatorx7/logshipper/pkg/ingest"
	"github.com/predatorx7/logshipper/pkg/subscriber/file"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	log := newLogger(cfg.LogLevel)

	// 1. Intake queue and the writer that owns the log file
	logBroker := broker.NewMemoryBroker()
	writer := file.NewSubscriber(logBroker, cfg.LogPath, log)
	if err := writer.Open(); err != nil {
		log.WithError(err).Fatal("Refusing to serve without a log writer")
	}

	writerDone := make(chan error, 1)
	go func() {
		writerDone <- writer.Start(context.Background())
	}()

	// 2. Setup Router
	handler := NewHandler(ingest.NewIngester(logBroker), log)
	r := newRouter(handler, cfg.ServeHelp, HandleStatus(logBroker, writer), log)

	// 3. Start Server
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Listening on %s", cfg.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s", err)
		}
	}()

	// 4. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server shutdown")
	}

	// Requests are done; let the writer drain what they queued.
	logBroker.Close()
	select {
	case err := <-writerDone:
		if err != nil {
			log.WithError(err).Error("File writer exited with error")
		}
	case <-ctx.Done():
		log.WithField("queued", logBroker.Len()).Error("File writer did not drain before shutdown timeout")
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		log.WithError(err).Error("Closing log file")
	}
	log.Info("Server exiting")
}

func newLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

func newRouter(h *Handler, serveHelp bool, status http.HandlerFunc, log logrus.FieldLogger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Post("/log/", h.HandleLogs)
	r.Get("/status", status)

	if serveHelp {
		r.HandleFunc("/", HandleHelp)
	} else {
		r.HandleFunc("/", HandleForbidden)
	}

	return r
}

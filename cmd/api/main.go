package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zhouzirui/kyara/backend/internal/app"
	"github.com/zhouzirui/kyara/backend/internal/config"
	"github.com/zhouzirui/kyara/backend/internal/handler"
	"github.com/zhouzirui/kyara/backend/internal/handler/line"
	"github.com/zhouzirui/kyara/backend/internal/service/dedup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	core, err := app.NewCore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize responder: %v", err)
	}

	// Initialize LINE webhook
	var lineHandler *line.Handler
	var events dedup.Store = dedup.Nop{}
	if cfg.LINE.Enabled() {
		replier, err := line.NewBotReplier(cfg.LINE.ChannelSecret, cfg.LINE.ChannelAccessToken)
		if err != nil {
			log.Fatalf("failed to initialize LINE client: %v", err)
		}
		events = app.NewDedupStore(cfg.Dedup)
		lineHandler = line.New(cfg.LINE.ChannelSecret, core.Responder, replier, events)
		log.Println("LINE webhook enabled on /callback")
	} else {
		log.Println("LINE credentials not configured, skipping webhook initialization")
	}

	router := handler.NewRouter(core.Personas, core.Responder, lineHandler)

	err = startServer(ctx, cfg.Server, router)
	if cerr := events.Close(); cerr != nil {
		log.Printf("failed to close event store: %v", cerr)
	}
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("kyara backend listening on %s", addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

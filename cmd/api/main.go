package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"posterminal/cmd/api/config"
	"posterminal/docs"
	"posterminal/pkg/audio"
	"posterminal/pkg/client"
	"posterminal/pkg/logger"
	"posterminal/pkg/order"
	"posterminal/pkg/otel"
	"posterminal/pkg/printer"
	"posterminal/pkg/receipt"
	"posterminal/pkg/store"
	"posterminal/pkg/store/memory"
	"posterminal/pkg/store/postgres"
	"posterminal/pkg/store/redis"
	"posterminal/pkg/store/sqlite"
	"posterminal/pkg/terminal"
)

// @title POS Terminal API
// @version 1.0
// @description Cart, payment and order submission for a coffeeshop point of sale
// @BasePath /
func main() {
	cfgPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.New(*cfgPath)
	if err != nil {
		logger.New(os.Stderr, logger.LevelInfo, "posterminal", nil).Error(context.Background(), "load config", "error", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if cfg.Log.File != "" {
		out = io.MultiWriter(os.Stdout, logger.FileWriter(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays))
	}
	log := logger.New(out, logger.ParseLevel(cfg.Log.Level), cfg.App.Name, otel.GetTraceID)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "terminal stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.App.Name,
		Host:        cfg.Tracing.Host,
		Probability: cfg.Tracing.Probability,
	})
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	backend, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer backend.Close()

	api := client.New(cfg.Upstream.BaseURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout}),
		client.WithRetries(cfg.Upstream.Retries),
		client.WithLogger(log),
		client.WithWebURL(cfg.Upstream.WebURL),
	)

	session, err := newSession(cfg, log, backend, api)
	if err != nil {
		return err
	}
	if err := session.Init(ctx); err != nil {
		return err
	}

	docs.SwaggerInfo.Version = cfg.App.Version
	srv := &server{
		session:         session,
		log:             log,
		tracer:          tp.Tracer(cfg.App.Name),
		reverseProxyURL: cfg.HTTP.ReverseProxyURL,
		now:             time.Now,
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "listening", "addr", httpServer.Addr, "store", cfg.Store.Driver, "api", api.Base(), "web", cfg.Upstream.WebURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info(shutdownCtx, "shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newSession(cfg *config.Config, log *logger.Logger, backend store.Backend, api *client.Client) (*terminal.Session, error) {
	loc, err := cfg.Terminal.Zone()
	if err != nil {
		return nil, err
	}

	var player audio.Player = audio.LogPlayer{Log: log}
	if cfg.Terminal.MuteAudio {
		player = audio.Nop{}
	}

	var ticketOut io.Writer
	if cfg.Print.Stdout {
		ticketOut = os.Stdout
	}

	return terminal.New(terminal.Config{
		Catalog:     api,
		Orders:      api,
		Fulfillment: api,
		Products:    store.NewProducts(backend),
		Sales:       store.NewSales(backend),
		Player:      player,
		Printer:     printer.New(cfg.Print.SpoolDir, ticketOut),
		Log:         log,
		Receipts: receipt.Generator{
			Prefix:     cfg.Terminal.ReceiptPrefix,
			DateLayout: cfg.Terminal.DateLayout,
			Location:   loc,
		},
		Router: order.Router{
			CommandType:      order.CommandType(cfg.Terminal.CommandType),
			OrderSource:      order.Source(cfg.Terminal.OrderSource),
			Location:         order.Location(cfg.Terminal.Location),
			KitchenThreshold: cfg.Terminal.KitchenThreshold,
			ExpandQuantity:   cfg.Terminal.ExpandQuantity,
		},
		LoyaltyMemberID: cfg.Terminal.LoyaltyMemberID,
		Denominations:   cfg.Terminal.Denominations,
	}), nil
}

func openStore(ctx context.Context, cfg config.Store) (store.Backend, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "sqlite", "":
		return sqlite.Open(cfg.Path)
	case "postgres":
		return postgres.Open(ctx, cfg.DSN)
	case "redis":
		return redis.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	}
	return nil, errors.New("unknown store driver " + cfg.Driver)
}

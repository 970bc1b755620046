package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/duisenbekovayan/devstore/internal/app"
	"github.com/duisenbekovayan/devstore/internal/cache"
	"github.com/duisenbekovayan/devstore/internal/catalog"
	"github.com/duisenbekovayan/devstore/internal/httpapi"
	"github.com/duisenbekovayan/devstore/internal/kafka"
	"github.com/duisenbekovayan/devstore/internal/render"
	"github.com/duisenbekovayan/devstore/internal/storage"
	"github.com/duisenbekovayan/devstore/internal/timer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", zap.Int("products", cat.Len()))

	kv, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer kv.Close()
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	tpl, err := render.New()
	if err != nil {
		return err
	}

	deps := app.Deps{
		Catalog:     cat,
		KV:          kv,
		Clock:       timer.Real{},
		SearchDelay: cfg.SearchDebounce,
		ToastTTL:    cfg.ToastTTL,
		Logger:      logger,
	}
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		pub := kafka.NewPublisher(brokers, cfg.KafkaTopic)
		defer pub.Close()
		deps.Publisher = pub
		logger.Info("publishing cart events", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}

	sessions := cache.New()
	api := httpapi.New(httpapi.Options{
		Addr:      cfg.HTTPAddr,
		StaticDir: cfg.StaticDir,
		Deps:      deps,
		Sessions:  sessions,
		Renderer:  tpl,
		Logger:    logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(api.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return api.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		t := time.NewTicker(cfg.SessionSweep)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-t.C:
				if n := sessions.Sweep(now, cfg.SessionTTL); n > 0 {
					logger.Debug("evicted idle sessions", zap.Int("count", n))
				}
			}
		}
	})
	return g.Wait()
}

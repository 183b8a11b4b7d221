// Command hazz2d runs the Hazz2 coordinator behind an HTTP/websocket
// gateway, with the configured bot roles attached in-process.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hazz2-game/hazz2/internal/bot"
	"github.com/hazz2-game/hazz2/internal/cache"
	"github.com/hazz2-game/hazz2/internal/config"
	"github.com/hazz2-game/hazz2/internal/game"
	"github.com/hazz2-game/hazz2/internal/gateway"
	"github.com/hazz2-game/hazz2/internal/logger"
	"github.com/hazz2-game/hazz2/internal/policy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
	log.Info("Server exited.")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		historian game.Historian
		feed      gateway.Feed
	)
	if cfg.RedisAddr != "" {
		pub, err := cache.NewPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisChannel)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, action feed disabled.")
		} else {
			defer pub.Close()
			historian, feed = pub, pub
			log.Infof("Publishing actions to %s on %s.", cfg.RedisChannel, cfg.RedisAddr)
		}
	}

	settings := game.DefaultSettings()
	settings.Observer = cfg.ObserverRole
	settings.GraceDelay = cfg.GraceDelay
	settings.TurnTimeout = cfg.TurnTimeout
	settings.Rules.MaxTurns = uint16(cfg.MaxTurns)

	hub := gateway.NewHub()
	coord := game.NewCoordinator(settings, hub, historian)
	defer coord.Shutdown()
	srv := gateway.NewServer(hub, coord, gateway.Options{AllowedOrigins: cfg.AllowedOrigins, Feed: feed})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Server started on %s (session %s).", cfg.HTTPAddr, coord.ID)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	popts := policy.Options{QTablePath: cfg.QTablePath, LuaScript: cfg.LuaScript}
	for _, role := range cfg.LocalBots {
		p, err := policy.ForRole(role, popts)
		if err != nil {
			return err
		}
		link := srv.Dial(role)
		runner := bot.NewRunner(role, p, link, cfg.ReceiveTimeout)
		g.Go(func() error {
			defer link.Close()
			return runner.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	return g.Wait()
}

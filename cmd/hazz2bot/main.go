// Command hazz2bot connects bot participants to a remote hazz2d gateway.
package main

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hazz2-game/hazz2/internal/bot"
	"github.com/hazz2-game/hazz2/internal/config"
	"github.com/hazz2-game/hazz2/internal/logger"
	"github.com/hazz2-game/hazz2/internal/policy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	popts := policy.Options{QTablePath: cfg.QTablePath, LuaScript: cfg.LuaScript}
	g, gctx := errgroup.WithContext(ctx)
	for _, role := range cfg.BotRoles {
		p, err := policy.ForRole(role, popts)
		if err != nil {
			log.Fatalf("policy for %s: %v", role, err)
		}
		tr, err := bot.DialWS(gctx, cfg.GatewayURL)
		if err != nil {
			log.Fatalf("%s: %v", role, err)
		}
		runner := bot.NewRunner(role, p, tr, cfg.ReceiveTimeout)
		g.Go(func() error {
			defer tr.Close()
			return runner.Run(gctx)
		})
		log.Infof("%s connected to %s with the %s policy.", role, cfg.GatewayURL, p.Name())
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Info("Bots exited.")
}

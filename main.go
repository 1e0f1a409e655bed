package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/neon-engine/neonhost/logger"
	"github.com/neon-engine/neonhost/scripthost"
)

func main() {
	configFile := flag.String("config", "config/host.yaml", "host config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// components are registered by the embedding application, the bare
	// host only keeps entities and skips unknown components
	host := scripthost.NewScriptHost(nil)
	if !host.Init(ctx, *configFile) {
		logger.Error("host init error")
		os.Exit(1)
	}
	host.Run(ctx)
	<-ctx.Done()
	logger.Info("shutting down")
	host.Exit()
}
